// Package capture retrieves HTML fragments from live pages, either with a
// plain HTTP request or by rendering the page in a headless browser.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Defaults for FetchOptions.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 10 << 20
)

const (
	maxRedirects = 5
	userAgent    = "formfill/1.0"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
	errBodyTooLarge     = errors.New("response body exceeds the capture limit")
)

// Fetcher retrieves the raw body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body io.ReadCloser, statusCode int, err error)
}

// FetchOptions tunes an HTTPFetcher. Zero values take the defaults.
type FetchOptions struct {
	Timeout  time.Duration
	MaxBytes int64
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	return o
}

// HTTPFetcher implements Fetcher with an http.Client that refuses private
// network destinations.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher returns an HTTPFetcher. Connections to private or reserved
// addresses are refused at dial time and every redirect hop is re-checked.
func NewHTTPFetcher(opts FetchOptions) *HTTPFetcher {
	opts = opts.withDefaults()
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:         safeDialer(min(opts.Timeout, 10*time.Second)).DialContext,
				TLSHandshakeTimeout: min(opts.Timeout, 10*time.Second),
				MaxConnsPerHost:     10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: redirectPolicy,
		},
		maxBytes: opts.MaxBytes,
	}
}

func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Fetch issues a GET for targetURL. Reading past the configured size limit
// fails with errBodyTooLarge instead of truncating the page.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req) //nolint:bodyclose // closed by the caller through cappedBody
	if err != nil {
		return nil, 0, err
	}
	if resp.ContentLength > f.limit() {
		_ = resp.Body.Close()
		return nil, resp.StatusCode, fmt.Errorf("%w: %d bytes announced", errBodyTooLarge, resp.ContentLength)
	}
	return &cappedBody{body: resp.Body, remaining: f.limit()}, resp.StatusCode, nil
}

func (f *HTTPFetcher) limit() int64 {
	if f.maxBytes <= 0 {
		return DefaultMaxBytes
	}
	return f.maxBytes
}

// cappedBody reads at most remaining bytes and reports errBodyTooLarge once
// the body proves longer.
type cappedBody struct {
	body      io.ReadCloser
	remaining int64
}

func (c *cappedBody) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errBodyTooLarge
	}
	// Read one byte past the limit to tell an exact fit from an overflow.
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.body.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n + int(c.remaining), errBodyTooLarge
	}
	return n, err
}

func (c *cappedBody) Close() error {
	return c.body.Close()
}
