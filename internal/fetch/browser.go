package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/trade-hire/internal/ingestion"
)

// MinContentLength is the visible text length below which a page is assumed to be
// rendered client-side.
const MinContentLength = 500

// settleDelay gives client-side frameworks time to populate the DOM after load.
const settleDelay = 2 * time.Second

// ShouldUseBrowser reports whether the visible text of html is too short to be the real page.
func ShouldUseBrowser(html string) bool {
	text, err := ingestion.HTMLText(html)
	if err != nil {
		return true
	}
	return len([]rune(text)) < MinContentLength
}

// WithBrowser loads rawURL in headless Chrome and returns the rendered document HTML.
// Requires Chrome or Chromium on the host.
func WithBrowser(ctx context.Context, rawURL string, timeout time.Duration, verbose bool) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if verbose {
		log.Printf("[fetch] starting headless browser for %s", rawURL)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
			chromedp.WindowSize(1366, 900),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(`document.documentElement.outerHTML`, &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	if verbose {
		log.Printf("[fetch] rendered %d bytes of HTML from %s", len(html), rawURL)
	}
	return html, nil
}
