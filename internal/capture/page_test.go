package capture

import (
	"context"
	"errors"
	"io"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/Bahjat/formfill/internal/platform/errs"
)

type mockFetcher struct {
	body    string
	bodyErr error // returned once body is drained
	status  int
	err     error
	calls   int
}

func (m *mockFetcher) Fetch(context.Context, string) (io.ReadCloser, int, error) {
	m.calls++
	if m.err != nil {
		return nil, 0, m.err
	}
	var r io.Reader = strings.NewReader(m.body)
	if m.bodyErr != nil {
		r = io.MultiReader(r, iotest.ErrReader(m.bodyErr))
	}
	return io.NopCloser(r), m.status, nil
}

const signupPage = `<html><body><h1>Join</h1><form id="signup"><input name="email"><input type="checkbox" name="terms"></form></body></html>`

func TestPage_Capture(t *testing.T) {
	tests := []struct {
		name     string
		target   Target
		fetcher  *mockFetcher
		want     string
		wantKind errs.Kind
		wantErr  bool
	}{
		{
			name:    "whole document",
			target:  Target{URL: "https://example.com/join"},
			fetcher: &mockFetcher{body: signupPage, status: 200},
			want:    signupPage,
		},
		{
			name:    "id selector",
			target:  Target{URL: "https://example.com/join", Selector: "#signup"},
			fetcher: &mockFetcher{body: signupPage, status: 200},
			want:    `<form id="signup"><input name="email"/><input type="checkbox" name="terms"/></form>`,
		},
		{
			name:     "missing element",
			target:   Target{URL: "https://example.com/join", Selector: "#login"},
			fetcher:  &mockFetcher{body: signupPage, status: 200},
			wantErr:  true,
			wantKind: errs.NotFound,
		},
		{
			name:     "css selector needs a browser",
			target:   Target{URL: "https://example.com/join", Selector: "form.signup"},
			fetcher:  &mockFetcher{},
			wantErr:  true,
			wantKind: errs.InvalidInput,
		},
		{
			name:     "relative url",
			target:   Target{URL: "/join"},
			fetcher:  &mockFetcher{},
			wantErr:  true,
			wantKind: errs.InvalidInput,
		},
		{
			name:     "unsupported scheme",
			target:   Target{URL: "file:///etc/passwd"},
			fetcher:  &mockFetcher{},
			wantErr:  true,
			wantKind: errs.InvalidInput,
		},
		{
			name:     "upstream error status",
			target:   Target{URL: "https://example.com/join"},
			fetcher:  &mockFetcher{status: 503},
			wantErr:  true,
			wantKind: errs.Unreachable,
		},
		{
			name:     "fetch failure",
			target:   Target{URL: "https://example.com/join"},
			fetcher:  &mockFetcher{err: errors.New("connection refused")},
			wantErr:  true,
			wantKind: errs.Unreachable,
		},
		{
			name:     "blocked address",
			target:   Target{URL: "https://example.com/join"},
			fetcher:  &mockFetcher{err: fmt.Errorf("dial tcp: %w: 10.0.0.5", errBlockedAddress)},
			wantErr:  true,
			wantKind: errs.InvalidInput,
		},
		{
			name:     "oversized document",
			target:   Target{URL: "https://example.com/join"},
			fetcher:  &mockFetcher{body: "<html>", bodyErr: errBodyTooLarge, status: 200},
			wantErr:  true,
			wantKind: errs.InvalidInput,
		},
		{
			name:     "oversized document with selector",
			target:   Target{URL: "https://example.com/join", Selector: "#signup"},
			fetcher:  &mockFetcher{body: "<html><body>", bodyErr: errBodyTooLarge, status: 200},
			wantErr:  true,
			wantKind: errs.InvalidInput,
		},
		{
			name:     "fetch deadline",
			target:   Target{URL: "https://example.com/join"},
			fetcher:  &mockFetcher{err: context.DeadlineExceeded},
			wantErr:  true,
			wantKind: errs.Timeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPage(tt.fetcher).Capture(context.Background(), tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if kind := errs.KindOf(err); kind != tt.wantKind {
					t.Errorf("kind = %v, want %v", kind, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Capture() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPage_CaptureValidatesBeforeFetching(t *testing.T) {
	f := &mockFetcher{}
	_, _ = NewPage(f).Capture(context.Background(), Target{URL: "ftp://example.com"})
	if f.calls != 0 {
		t.Errorf("fetcher called %d times for an invalid target", f.calls)
	}
}

func TestBrowser_CaptureRejectsInvalidURL(t *testing.T) {
	_, err := NewBrowser(0).Capture(context.Background(), Target{URL: "not a url", Selector: "form"})
	if kind := errs.KindOf(err); kind != errs.InvalidInput {
		t.Errorf("kind = %v, want %v (err %v)", kind, errs.InvalidInput, err)
	}
}
