package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in a shared headless Chrome instance
type ChromeRenderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChromeRenderer starts the browser allocator. Tabs are opened lazily.
func NewChromeRenderer(headless bool, userAgent string) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{allocCtx: allocCtx, cancel: cancel}
}

// Render navigates a fresh tab to pageURL and returns its HTML and cookies
func (r *ChromeRenderer) Render(ctx context.Context, pageURL string) (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	// The tab hangs off the allocator, so tie it to the request by hand.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	log.Printf("Rendering %s", pageURL)

	var (
		html    string
		cookies []*network.Cookie
	)
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %v", err)
	}

	page := &Page{HTML: html}
	for _, c := range cookies {
		page.Cookies = append(page.Cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return page, nil
}

// Close shuts down the browser
func (r *ChromeRenderer) Close() {
	r.cancel()
}
