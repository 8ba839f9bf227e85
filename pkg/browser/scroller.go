package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/retry"
)

// Scroller advances the feed one viewport at a time
type Scroller struct {
	eval    Evaluator
	retries *retry.Config
}

// NewScroller creates a scroll driver. Height reads are retried briefly
// while the page context is being replaced.
func NewScroller(eval Evaluator) *Scroller {
	return &Scroller{
		eval: eval,
		retries: &retry.Config{
			MaxAttempts: 3,
			Backoff:     &retry.ConstantBackoff{Delay: 500 * time.Millisecond},
			RetryIf:     errs.IsTransient,
		},
	}
}

// Advance scrolls down by one viewport height
func (s *Scroller) Advance(ctx context.Context) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		_, err := s.eval.Evaluate(ctx, scrollScript)
		return err
	}, s.retries)
}

// CurrentHeight returns the scroll height of the document body
func (s *Scroller) CurrentHeight(ctx context.Context) (int64, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (int64, error) {
		raw, err := s.eval.Evaluate(ctx, heightScript)
		if err != nil {
			return 0, err
		}
		height, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse page height %q: %w", raw, err)
		}
		return height, nil
	}, s.retries)
}
