package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"testing"

	"propertyflow-backend/internal/line"
	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/render"
	"propertyflow-backend/internal/repository"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessenger feeds webhook events from memory and records pushes.
type fakeMessenger struct {
	events  []*linebot.Event
	profile *line.Profile
	content map[string][]byte

	pushedTexts  []string
	pushedImages []string
}

func (m *fakeMessenger) ParseWebhook(r *http.Request) ([]*linebot.Event, error) {
	return m.events, nil
}

func (m *fakeMessenger) PushText(to, text string) error {
	m.pushedTexts = append(m.pushedTexts, to+": "+text)
	return nil
}

func (m *fakeMessenger) PushImage(to, originalURL, previewURL string) error {
	m.pushedImages = append(m.pushedImages, to+": "+originalURL)
	return nil
}

func (m *fakeMessenger) GetMessageContent(messageID string) ([]byte, string, error) {
	data, ok := m.content[messageID]
	if !ok {
		return nil, "", fmt.Errorf("message %s not found", messageID)
	}
	return data, "image/jpeg", nil
}

func (m *fakeMessenger) GetProfile(userID string) (*line.Profile, error) {
	if m.profile == nil {
		return nil, fmt.Errorf("no profile for %s", userID)
	}
	return m.profile, nil
}

// fakeRenderer returns a fixed PNG payload.
type fakeRenderer struct{ renders int }

func (r *fakeRenderer) RenderPNG(ctx context.Context, card render.Card) ([]byte, error) {
	r.renders++
	return []byte("png"), nil
}

func (r *fakeRenderer) Close() {}

func newLineService(env *testEnv, messenger *fakeMessenger) (LineService, *fakeRenderer) {
	renderer := &fakeRenderer{}
	svc := NewLineService(
		messenger,
		repository.NewLineRepository(env.db),
		repository.NewTenantRepository(env.db),
		repository.NewInvoiceRepository(env.db),
		env.payments,
		renderer,
		env.store,
	)
	return svc, renderer
}

func webhookRequest(t *testing.T) *http.Request {
	t.Helper()
	r, err := http.NewRequest(http.MethodPost, "/api/line/webhook", nil)
	require.NoError(t, err)
	return r
}

func TestWebhookFollowLinksTenant(t *testing.T) {
	env := newTestEnv(t)

	env.tenant.LineUserID = "U100"
	require.NoError(t, env.db.Save(env.tenant).Error)

	messenger := &fakeMessenger{
		profile: &line.Profile{UserID: "U100", DisplayName: "Somchai", PictureURL: "https://p.test/a.jpg"},
		events: []*linebot.Event{
			{Type: linebot.EventTypeFollow, Source: &linebot.EventSource{UserID: "U100"}},
		},
	}
	svc, _ := newLineService(env, messenger)

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookRequest(t)))

	contacts, total, err := svc.ListContacts(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Somchai", contacts[0].DisplayName)
	assert.True(t, contacts[0].Followed)
	require.NotNil(t, contacts[0].TenantID)
	assert.Equal(t, env.tenant.ID.String(), *contacts[0].TenantID)
}

func TestWebhookUnfollowMarksContact(t *testing.T) {
	env := newTestEnv(t)

	messenger := &fakeMessenger{
		profile: &line.Profile{UserID: "U200", DisplayName: "Visitor"},
		events: []*linebot.Event{
			{Type: linebot.EventTypeFollow, Source: &linebot.EventSource{UserID: "U200"}},
			{Type: linebot.EventTypeUnfollow, Source: &linebot.EventSource{UserID: "U200"}},
		},
	}
	svc, _ := newLineService(env, messenger)

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookRequest(t)))

	contacts, _, err := svc.ListContacts(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.False(t, contacts[0].Followed)
}

func TestWebhookImageCapturesSlip(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")

	env.tenant.LineUserID = "U300"
	require.NoError(t, env.db.Save(env.tenant).Error)

	messenger := &fakeMessenger{
		profile: &line.Profile{UserID: "U300", DisplayName: "Somchai"},
		content: map[string][]byte{"msg-1": []byte("slip-image")},
		events: []*linebot.Event{
			{
				Type:    linebot.EventTypeMessage,
				Source:  &linebot.EventSource{UserID: "U300"},
				Message: &linebot.ImageMessage{ID: "msg-1"},
			},
		},
	}
	svc, _ := newLineService(env, messenger)

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookRequest(t)))

	// The image became a pending payment slip on the tenant's open invoice.
	var payment model.Payment
	require.NoError(t, env.db.Preload("Slips").First(&payment, "invoice_id = ?", inv.ID).Error)
	assert.Equal(t, model.PaymentPending, payment.Status)
	require.Len(t, payment.Slips, 1)
	assert.Equal(t, model.SlipLineChat, payment.Slips[0].Source)
	assert.Equal(t, "Somchai", payment.Slips[0].UploadedBy)

	// The chat history keeps the slip's storage key.
	contacts, _, err := svc.ListContacts(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	messages, _, err := svc.ListMessages(context.Background(), mustUUID(t, contacts[0].ID), 1, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "image", messages[0].MessageType)
	assert.Equal(t, payment.Slips[0].StorageKey, messages[0].StorageKey)
}

func TestWebhookImageWithoutOpenInvoice(t *testing.T) {
	env := newTestEnv(t)

	env.tenant.LineUserID = "U301"
	require.NoError(t, env.db.Save(env.tenant).Error)

	messenger := &fakeMessenger{
		profile: &line.Profile{UserID: "U301", DisplayName: "Somchai"},
		content: map[string][]byte{"msg-2": []byte("holiday-photo")},
		events: []*linebot.Event{
			{
				Type:    linebot.EventTypeMessage,
				Source:  &linebot.EventSource{UserID: "U301"},
				Message: &linebot.ImageMessage{ID: "msg-2"},
			},
		},
	}
	svc, _ := newLineService(env, messenger)

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookRequest(t)))

	// Message archived, but no payment created.
	var payments int64
	require.NoError(t, env.db.Model(&model.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)

	var messages int64
	require.NoError(t, env.db.Model(&model.LineMessage{}).Count(&messages).Error)
	assert.EqualValues(t, 1, messages)
}

func TestWebhookTextArchived(t *testing.T) {
	env := newTestEnv(t)

	messenger := &fakeMessenger{
		profile: &line.Profile{UserID: "U400", DisplayName: "Visitor"},
		events: []*linebot.Event{
			{
				Type:    linebot.EventTypeMessage,
				Source:  &linebot.EventSource{UserID: "U400"},
				Message: &linebot.TextMessage{ID: "t1", Text: "hello"},
			},
		},
	}
	svc, _ := newLineService(env, messenger)

	require.NoError(t, svc.HandleWebhook(context.Background(), webhookRequest(t)))

	var msg model.LineMessage
	require.NoError(t, env.db.First(&msg).Error)
	assert.Equal(t, model.DirectionIn, msg.Direction)
	assert.Equal(t, "text", msg.MessageType)
	assert.Equal(t, "hello", msg.Text)
}

func TestSaveSlipByMessageID(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")

	messenger := &fakeMessenger{content: map[string][]byte{"msg-9": []byte("slip")}}
	svc, _ := newLineService(env, messenger)

	payment, err := svc.SaveSlip(context.Background(), env.owner.ID, SaveSlipRequest{
		MessageID: "msg-9",
		InvoiceID: inv.ID,
	})
	require.NoError(t, err)
	require.Len(t, payment.Slips, 1)
	assert.Equal(t, model.SlipManual, payment.Slips[0].Source)

	_, err = svc.SaveSlip(context.Background(), env.owner.ID, SaveSlipRequest{
		MessageID: "missing",
		InvoiceID: inv.ID,
	})
	assert.Error(t, err)
}

func TestSubmitLiffSlipResolvesOpenInvoice(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	contact := &model.LineContact{LineUserID: "U500", DisplayName: "Somchai", TenantID: &env.tenant.ID, Followed: true}
	require.NoError(t, env.db.Create(contact).Error)

	messenger := &fakeMessenger{}
	svc, _ := newLineService(env, messenger)

	payment, err := svc.SubmitLiffSlip(ctx, LiffSlipRequest{
		LineUserID: "U500",
		Image:      base64.StdEncoding.EncodeToString([]byte("liff-slip")),
	})
	require.NoError(t, err)
	assert.Equal(t, inv.ID, payment.InvoiceID)
	require.Len(t, payment.Slips, 1)
	assert.Equal(t, model.SlipLiff, payment.Slips[0].Source)

	// Unknown contact is rejected.
	_, err = svc.SubmitLiffSlip(ctx, LiffSlipRequest{
		LineUserID: "U999",
		Image:      base64.StdEncoding.EncodeToString([]byte("x")),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitLiffSlipUnlinkedContact(t *testing.T) {
	env := newTestEnv(t)

	contact := &model.LineContact{LineUserID: "U600", DisplayName: "Stranger", Followed: true}
	require.NoError(t, env.db.Create(contact).Error)

	svc, _ := newLineService(env, &fakeMessenger{})

	_, err := svc.SubmitLiffSlip(context.Background(), LiffSlipRequest{
		LineUserID: "U600",
		Image:      base64.StdEncoding.EncodeToString([]byte("x")),
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNotifyInvoicePushesCardAndText(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")

	env.tenant.LineUserID = "U700"
	require.NoError(t, env.db.Save(env.tenant).Error)

	messenger := &fakeMessenger{}
	svc, renderer := newLineService(env, messenger)

	err := svc.NotifyInvoice(context.Background(), env.owner.ID, mustUUID(t, inv.ID), "en")
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.renders)
	require.Len(t, messenger.pushedImages, 1)
	assert.Contains(t, messenger.pushedImages[0], "U700: https://storage.test/cards/")
	require.Len(t, messenger.pushedTexts, 1)
	assert.Contains(t, messenger.pushedTexts[0], inv.InvoiceNo)
	assert.Contains(t, messenger.pushedTexts[0], "9500.00")
}

func TestNotifyInvoiceWithoutLinkedAccount(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")

	svc, _ := newLineService(env, &fakeMessenger{})

	err := svc.NotifyInvoice(context.Background(), env.owner.ID, mustUUID(t, inv.ID), "en")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNotifyPaymentConfirmed(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")

	env.tenant.LineUserID = "U800"
	require.NoError(t, env.db.Save(env.tenant).Error)

	_, err := env.payments.CreatePayment(context.Background(), env.owner.ID, CreatePaymentRequest{
		InvoiceID:  inv.ID,
		Amount:     "9500",
		Method:     model.MethodCash,
		AutoVerify: true,
	})
	require.NoError(t, err)

	messenger := &fakeMessenger{}
	svc, _ := newLineService(env, messenger)

	require.NoError(t, svc.NotifyPaymentConfirmed(context.Background(), env.owner.ID, mustUUID(t, inv.ID)))
	require.Len(t, messenger.pushedTexts, 1)
	assert.Contains(t, messenger.pushedTexts[0], "fully paid")
}
