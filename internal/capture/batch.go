package capture

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Result is the outcome of capturing one target. Err is set when that
// target failed; other targets are unaffected.
type Result struct {
	Target Target
	HTML   string
	Err    error
}

// Batch captures many targets with bounded concurrency and a start rate.
type Batch struct {
	capturer    Capturer
	concurrency int
	limiter     *rate.Limiter
}

// NewBatch returns a Batch running at most concurrency captures at once and
// starting at most perSecond captures per second. perSecond <= 0 disables
// pacing.
func NewBatch(c Capturer, concurrency int, perSecond float64) *Batch {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Batch{
		capturer:    c,
		concurrency: max(concurrency, 1),
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// CaptureAll captures every target and returns results in target order.
// The error is non-nil only when ctx ends before all captures start.
func (b *Batch) CaptureAll(ctx context.Context, targets []Target) ([]Result, error) {
	results := make([]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, t := range targets {
		results[i].Target = t
		g.Go(func() error {
			if err := b.limiter.Wait(gctx); err != nil {
				results[i].Err = err
				return err
			}
			results[i].HTML, results[i].Err = b.capturer.Capture(gctx, t)
			return nil
		})
	}
	return results, g.Wait()
}
