package capture

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultSelector = "body"

// Browser captures pages rendered by headless Chrome, so fragments built by
// scripts are visible. Selectors are CSS query selectors.
type Browser struct {
	timeout   time.Duration
	allocOpts []chromedp.ExecAllocatorOption
	resolver  resolver
}

// NewBrowser returns a Browser whose captures give up after timeout. Extra
// allocator options are appended to chromedp's defaults.
func NewBrowser(timeout time.Duration, opts ...chromedp.ExecAllocatorOption) *Browser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(userAgent),
	)
	return &Browser{
		timeout:   timeout,
		allocOpts: append(allocOpts, opts...),
		resolver:  net.DefaultResolver,
	}
}

// Capture navigates to t.URL, waits for t.Selector (default "body") and
// returns its outer HTML. Hosts resolving to private or reserved addresses
// are refused before the browser starts.
func (b *Browser) Capture(ctx context.Context, t Target) (string, error) {
	target, err := validateURL(t.URL)
	if err != nil {
		return "", err
	}
	if err := checkHost(ctx, b.resolver, target.Hostname()); err != nil {
		return "", fetchError(ctx, err)
	}
	sel := strings.TrimSpace(t.Selector)
	if sel == "" {
		sel = defaultSelector
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocOpts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	runCtx, cancelRun := context.WithTimeout(tabCtx, b.timeout)
	defer cancelRun()

	var outer string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(target.String()),
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.OuterHTML(sel, &outer, chromedp.ByQuery),
	)
	if err != nil {
		return "", fetchError(runCtx, err)
	}
	return outer, nil
}
