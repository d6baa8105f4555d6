package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const renderTimeout = 30 * time.Second

// Renderer rasterizes HTML documents with a headless browser.
type Renderer struct {
	allocOpts []chromedp.ExecAllocatorOption
}

// New creates a renderer using the default headless Chrome allocator.
func New() *Renderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("hide-scrollbars", true),
	)
	return &Renderer{allocOpts: opts}
}

// RenderHTML renders an HTML document at the given viewport width and
// returns a PNG screenshot of the full page.
func (r *Renderer) RenderHTML(ctx context.Context, html string, width int) ([]byte, error) {
	if width <= 0 {
		width = 600
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocOpts...)
	defer allocCancel()

	cdpCtx, cdpCancel := chromedp.NewContext(allocCtx)
	defer cdpCancel()

	cdpCtx, timeoutCancel := context.WithTimeout(cdpCtx, renderTimeout)
	defer timeoutCancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var buf []byte
	err := chromedp.Run(cdpCtx,
		chromedp.EmulateViewport(int64(width), 400),
		chromedp.Navigate(dataURL),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf, nil
}
