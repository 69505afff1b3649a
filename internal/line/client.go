// Package line wraps the LINE Messaging API client used for tenant
// communication: webhook parsing, chat-content download and push messages.
package line

import (
	"fmt"
	"io"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Profile is the contact identity returned by the platform.
type Profile struct {
	UserID      string
	DisplayName string
	PictureURL  string
}

// Messenger is the platform surface the services depend on.
type Messenger interface {
	ParseWebhook(r *http.Request) ([]*linebot.Event, error)
	PushText(to, text string) error
	PushImage(to, originalURL, previewURL string) error
	// GetMessageContent downloads the binary content (slip image) of a
	// chat message by its platform message ID.
	GetMessageContent(messageID string) (data []byte, contentType string, err error)
	GetProfile(userID string) (*Profile, error)
}

type client struct {
	bot *linebot.Client
}

// NewClient builds a Messenger from the channel secret and access token.
func NewClient(channelSecret, channelToken string) (Messenger, error) {
	if channelSecret == "" || channelToken == "" {
		return nil, fmt.Errorf("LINE channel secret and token are required")
	}
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE client: %w", err)
	}
	return &client{bot: bot}, nil
}

func (c *client) ParseWebhook(r *http.Request) ([]*linebot.Event, error) {
	return c.bot.ParseRequest(r)
}

func (c *client) PushText(to, text string) error {
	_, err := c.bot.PushMessage(to, linebot.NewTextMessage(text)).Do()
	if err != nil {
		return fmt.Errorf("failed to push text message: %w", err)
	}
	return nil
}

func (c *client) PushImage(to, originalURL, previewURL string) error {
	if previewURL == "" {
		previewURL = originalURL
	}
	_, err := c.bot.PushMessage(to, linebot.NewImageMessage(originalURL, previewURL)).Do()
	if err != nil {
		return fmt.Errorf("failed to push image message: %w", err)
	}
	return nil
}

func (c *client) GetMessageContent(messageID string) ([]byte, string, error) {
	res, err := c.bot.GetMessageContent(messageID).Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch message content: %w", err)
	}
	defer res.Content.Close()

	data, err := io.ReadAll(res.Content)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read message content: %w", err)
	}
	return data, res.ContentType, nil
}

func (c *client) GetProfile(userID string) (*Profile, error) {
	res, err := c.bot.GetProfile(userID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch LINE profile: %w", err)
	}
	return &Profile{
		UserID:      res.UserID,
		DisplayName: res.DisplayName,
		PictureURL:  res.PictureURL,
	}, nil
}
