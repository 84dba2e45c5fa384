package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bahjat/formfill/internal/capture"
	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/platform/errs"
	"github.com/Bahjat/formfill/internal/workbench"
)

// sourceFlags selects where a command reads its HTML fragment from.
type sourceFlags struct {
	urls     []string
	selector string
	browser  bool
	timeout  time.Duration
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.urls, "url", nil, "capture the fragment from a live page (repeatable)")
	cmd.Flags().StringVar(&f.selector, "selector", "", "element to capture; CSS with --browser, #id otherwise")
	cmd.Flags().BoolVar(&f.browser, "browser", false, "render pages in headless Chrome before capturing")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-page capture timeout (env CAPTURE_TIMEOUT)")
}

func (a *app) capturerFor(f *sourceFlags) capture.Capturer {
	if a.capturer != nil {
		return a.capturer
	}
	timeout := a.cfg.CaptureTimeout
	if f.timeout > 0 {
		timeout = f.timeout
	}
	if f.browser {
		return capture.NewBrowser(timeout)
	}
	return capture.NewPage(capture.NewHTTPFetcher(capture.FetchOptions{
		Timeout:  timeout,
		MaxBytes: a.cfg.CaptureMaxBytes,
	}))
}

// readFragment returns the fragment named by args[0] ("-" or absent means
// stdin) or captured from the --url pages. Several pages are captured as a
// batch and concatenated; pages that fail are logged and skipped.
func (a *app) readFragment(cmd *cobra.Command, args []string, f *sourceFlags) (string, error) {
	if len(f.urls) > 0 {
		return a.captureAll(cmd.Context(), f)
	}

	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", &errs.AppError{Kind: errs.InvalidInput, Message: "Could not read the HTML fragment.", Cause: err}
	}
	return string(data), nil
}

func (a *app) captureAll(ctx context.Context, f *sourceFlags) (string, error) {
	targets := make([]capture.Target, 0, len(f.urls))
	for _, u := range f.urls {
		targets = append(targets, capture.Target{URL: u, Selector: f.selector})
	}

	c := a.capturerFor(f)
	if len(targets) == 1 {
		return c.Capture(ctx, targets[0])
	}

	results, err := capture.NewBatch(c, a.cfg.CaptureConcurrency, a.cfg.CaptureRate).CaptureAll(ctx, targets)
	if err != nil {
		return "", err
	}

	var (
		parts    []string
		firstErr error
	)
	for _, r := range results {
		if r.Err != nil {
			a.logger.Warn("capture failed", "url", r.Target.URL, "error", r.Err)
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		parts = append(parts, r.HTML)
	}
	if len(parts) == 0 {
		return "", firstErr
	}
	return strings.Join(parts, "\n"), nil
}

// session loads fragment into a new session of svc.
func session(ctx context.Context, svc *workbench.Service, fragment string) (string, error) {
	receipt, err := svc.Receive(ctx, "", model.Message{Type: model.MessageSelectedDOMContent, Content: fragment})
	if err != nil {
		return "", err
	}
	return receipt.SessionID, nil
}
