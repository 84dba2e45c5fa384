package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/Bahjat/formfill/internal/platform/errs"
)

// Target names a page and, optionally, the element to extract from it.
type Target struct {
	URL      string `json:"url" yaml:"url"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
}

// Capturer returns the HTML of a target element.
type Capturer interface {
	Capture(ctx context.Context, t Target) (string, error)
}

var errNoMatch = errors.New("no element matches selector")

// Page captures over plain HTTP. It understands "#id" selectors only; an
// empty selector returns the whole document.
type Page struct {
	fetcher Fetcher
}

// NewPage returns a Page backed by fetcher.
func NewPage(fetcher Fetcher) *Page {
	return &Page{fetcher: fetcher}
}

// Capture fetches t.URL and returns the selected element's outer HTML.
func (p *Page) Capture(ctx context.Context, t Target) (string, error) {
	if _, err := validateURL(t.URL); err != nil {
		return "", err
	}
	id, err := idSelector(t.Selector)
	if err != nil {
		return "", err
	}

	body, statusCode, err := p.fetcher.Fetch(ctx, t.URL)
	if err != nil {
		return "", fetchError(ctx, err)
	}
	defer func() { _ = body.Close() }()

	if statusCode >= 400 {
		return "", &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: statusCode,
			Message:        "The capture target returned an error status.",
		}
	}

	if id == "" {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fetchError(ctx, err)
		}
		return string(data), nil
	}

	doc, err := html.Parse(body)
	if errors.Is(err, errBodyTooLarge) {
		return "", fetchError(ctx, err)
	}
	if err != nil {
		return "", &errs.AppError{Kind: errs.ParseFailure, Message: "Failed to parse the captured page.", Cause: err}
	}
	node := findByID(doc, id)
	if node == nil {
		return "", &errs.AppError{Kind: errs.NotFound, Message: "No element matches " + t.Selector + ".", Cause: errNoMatch}
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", &errs.AppError{Kind: errs.ParseFailure, Message: "Failed to render the selected element.", Cause: err}
	}
	return buf.String(), nil
}

func validateURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please enter a full URL such as https://example.com/form.",
			Cause:   err,
		}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please enter a full URL such as https://example.com/form.",
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Only http and https URLs can be captured.",
		}
	}
	return parsed, nil
}

func idSelector(sel string) (string, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return "", nil
	}
	id, ok := strings.CutPrefix(sel, "#")
	if !ok || id == "" || strings.ContainsAny(id, " .:[>#") {
		return "", &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Only #id selectors are supported without a browser.",
		}
	}
	return id, nil
}

func fetchError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, errBlockedAddress):
		return &errs.AppError{Kind: errs.InvalidInput, Message: "Capturing private or reserved network addresses is not allowed.", Cause: err}
	case errors.Is(err, errBodyTooLarge):
		return &errs.AppError{Kind: errs.InvalidInput, Message: "The captured page is larger than the capture size limit.", Cause: err}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &errs.AppError{Kind: errs.Timeout, Message: "The capture target took too long to respond.", Cause: err}
	}
	return &errs.AppError{Kind: errs.Unreachable, Message: "The capture target could not be reached. Check the address.", Cause: err}
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
