package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer turns a card into PNG bytes.
type Renderer interface {
	RenderPNG(ctx context.Context, card Card) ([]byte, error)
	Close()
}

// ChromeRenderer screenshots the card HTML in a shared headless Chrome
// allocator. A fresh browser tab is created per render.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// NewChromeRenderer starts the headless Chrome allocator.
func NewChromeRenderer() *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     20 * time.Second,
	}
}

func (r *ChromeRenderer) RenderPNG(ctx context.Context, card Card) ([]byte, error) {
	html, err := card.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to render card template: %w", err)
	}

	tabCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, r.timeout)
	defer timeoutCancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var png []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(452, 640),
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.FullScreenshot(&png, 90),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to screenshot card: %w", err)
	}
	return png, nil
}

func (r *ChromeRenderer) Close() {
	r.allocCancel()
}
