package crawler

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"sjsage522/listingwatch/helpers"
)

const browserTimeout = 45 * time.Second

// NewBrowserFetcher returns a FetchFunc that renders pages in headless Chrome.
// With remoteAddr set it attaches to a running browser's DevTools endpoint.
func NewBrowserFetcher(remoteAddr string) FetchFunc {
	return func(ctx context.Context, pageURL string) (io.Reader, error) {
		var (
			allocCtx    context.Context
			cancelAlloc context.CancelFunc
		)
		if remoteAddr != "" {
			allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, remoteAddr)
		} else {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
			)
			if bin := os.Getenv("CHROME_BIN"); bin != "" {
				opts = append(opts, chromedp.ExecPath(bin))
			}
			allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
		}
		defer cancelAlloc()

		browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancel()

		browserCtx, cancelTimeout := context.WithTimeout(browserCtx, browserTimeout)
		defer cancelTimeout()

		var html string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(2*time.Second),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return nil, fmt.Errorf("browser fetch %s: %w", pageURL, err)
		}

		if marker := helpers.BlockMarker([]byte(html)); marker != "" {
			return nil, &helpers.BlockedError{Marker: marker}
		}

		return strings.NewReader(html), nil
	}
}
