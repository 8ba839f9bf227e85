package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/retry"
)

// Config controls the scroll-and-extract loop
type Config struct {
	// MaxRecords caps the accumulator (0 means unbounded)
	MaxRecords int
	// MaxNoGrowthStreak is the number of consecutive scrolls without height
	// growth after which the feed counts as exhausted
	MaxNoGrowthStreak int
	ScrollDelay       time.Duration
	// RetryBackoff spaces out transient extraction retries
	RetryBackoff retry.BackoffStrategy
}

// DefaultConfig returns the loop settings used when none are given
func DefaultConfig() Config {
	return Config{
		MaxNoGrowthStreak: 3,
		ScrollDelay:       500 * time.Millisecond,
		RetryBackoff: &retry.ExponentialBackoff{
			BaseDelay:  3 * time.Second,
			MaxDelay:   30 * time.Second,
			Multiplier: 1.5,
		},
	}
}

// Progress is reported after every flush. All counts only grow.
type Progress struct {
	Iteration      int
	Collected      int
	Persisted      int
	NoGrowthStreak int
}

// Option configures a Run
type Option func(*Run)

// WithAnnotator sets the first-sight record decorator
func WithAnnotator(a Annotator) Option {
	return func(r *Run) { r.annotate = a }
}

// WithProgress registers a progress observer
func WithProgress(fn func(Progress)) Option {
	return func(r *Run) { r.progress = fn }
}

// WithLogger sets the run logger
func WithLogger(l logger.Logger) Option {
	return func(r *Run) { r.logger = l }
}

// Run owns the state of one collection: the deduplicated accumulator, the
// scroll iteration count, the no-growth streak and the last content height.
// A Run is used for a single Collect call.
type Run struct {
	extractor PageExtractor
	driver    ScrollDriver
	flusher   Flusher
	cfg       Config
	annotate  Annotator
	progress  func(Progress)
	logger    logger.Logger

	// mu guards the accumulator and persisted against calls from other goroutines
	mu    sync.Mutex
	seen  map[string]struct{}
	order []models.Record

	iteration  int
	streak     int
	lastHeight int64

	persisted     int
	newlyAdded    int
	flushFailures int
	lastFlushErr  error
}

// New creates a collection run
func New(extractor PageExtractor, driver ScrollDriver, flusher Flusher, cfg Config, opts ...Option) *Run {
	defaults := DefaultConfig()
	if cfg.MaxNoGrowthStreak <= 0 {
		cfg.MaxNoGrowthStreak = defaults.MaxNoGrowthStreak
	}
	if cfg.ScrollDelay < 0 {
		cfg.ScrollDelay = 0
	}
	if cfg.MaxRecords < 0 {
		cfg.MaxRecords = 0
	}
	if cfg.RetryBackoff == nil {
		cfg.RetryBackoff = defaults.RetryBackoff
	}

	r := &Run{
		extractor: extractor,
		driver:    driver,
		flusher:   flusher,
		cfg:       cfg,
		seen:      make(map[string]struct{}),
		logger:    logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collect drives the loop until the record limit is reached, the feed stops
// growing for MaxNoGrowthStreak consecutive scrolls, ctx is done, or a
// collaborator fails. The accumulator is flushed once per iteration; the
// final flush is left to the caller. The returned Result is valid in every
// case, including when err is non-nil.
func (r *Run) Collect(ctx context.Context) (Result, error) {
	height, err := r.driver.CurrentHeight(ctx)
	if err != nil {
		return r.result(), errs.New(errs.ErrorTypeEngineFault, "read initial height", err)
	}
	r.lastHeight = height

	for !r.limitReached() && r.streak < r.cfg.MaxNoGrowthStreak {
		if err := ctx.Err(); err != nil {
			return r.result(), errs.New(errs.ErrorTypeInterrupted, "collect", err)
		}
		r.iteration++

		candidates, err := r.extract(ctx)
		if err != nil {
			return r.result(), err
		}

		added := r.accumulate(candidates)
		r.flush(ctx)

		if err := r.driver.Advance(ctx); err != nil {
			if ctx.Err() != nil {
				return r.result(), errs.New(errs.ErrorTypeInterrupted, "scroll", ctx.Err())
			}
			return r.result(), errs.New(errs.ErrorTypeEngineFault, "scroll", err)
		}

		if err := retry.Wait(ctx, r.cfg.ScrollDelay); err != nil {
			return r.result(), errs.New(errs.ErrorTypeInterrupted, "scroll delay", err)
		}

		height, err := r.driver.CurrentHeight(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return r.result(), errs.New(errs.ErrorTypeInterrupted, "read height", ctx.Err())
			}
			return r.result(), errs.New(errs.ErrorTypeEngineFault, "read height", err)
		}
		if height == r.lastHeight {
			r.streak++
		} else {
			r.streak = 0
			r.lastHeight = height
		}

		logger.LogScroll(r.logger, r.iteration, height, r.streak, r.collected())
		if added == 0 && r.streak > 0 {
			r.logger.DebugWithFields("No new records and no growth", map[string]interface{}{
				"iteration": r.iteration,
				"streak":    r.streak,
				"max":       r.cfg.MaxNoGrowthStreak,
			})
		}
	}

	res := r.result()
	if res.ExhaustedBeforeLimit() {
		r.logger.WarnWithFields("Feed exhausted before limit", map[string]interface{}{
			"collected": len(res.Records),
			"limit":     r.cfg.MaxRecords,
		})
	}
	return res, nil
}

// extract calls the page extractor, retrying in place while the page context
// is transiently unavailable. Retries neither scroll nor touch the streak.
func (r *Run) extract(ctx context.Context) ([]models.Record, error) {
	r.cfg.RetryBackoff.Reset()
	for attempt := 1; ; attempt++ {
		candidates, err := r.extractor.Extract(ctx)
		if err == nil {
			return candidates, nil
		}
		if ctx.Err() != nil {
			return nil, errs.New(errs.ErrorTypeInterrupted, "extract", ctx.Err())
		}
		if !errs.IsTransient(err) {
			return nil, errs.New(errs.ErrorTypeEngineFault, "extract", err)
		}

		delay := r.cfg.RetryBackoff.NextDelay(attempt)
		r.logger.WithError(err).WarnWithFields("Transient extraction failure, retrying", map[string]interface{}{
			"iteration": r.iteration,
			"attempt":   attempt,
			"delay":     delay,
		})
		if err := retry.Wait(ctx, delay); err != nil {
			return nil, errs.New(errs.ErrorTypeInterrupted, "extract retry", err)
		}
	}
}

// accumulate inserts candidates whose ID has not been seen, stopping once
// the limit is reached. It returns the number inserted.
func (r *Run) accumulate(candidates []models.Record) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, c := range candidates {
		if r.cfg.MaxRecords > 0 && len(r.order) >= r.cfg.MaxRecords {
			break
		}
		if !c.Valid() {
			continue
		}
		if _, ok := r.seen[c.ID]; ok {
			continue
		}
		if r.annotate != nil {
			r.annotate(&c)
		}
		r.seen[c.ID] = struct{}{}
		r.order = append(r.order, c)
		added++
	}
	return added
}

// flush persists the accumulator. Failures are recorded and logged; the
// loop carries on so the operator sees the error while collection continues.
func (r *Run) flush(ctx context.Context) {
	snapshot := r.Snapshot()
	res, err := r.flusher.Flush(context.WithoutCancel(ctx), snapshot)
	if err != nil {
		r.flushFailures++
		r.lastFlushErr = err
		r.logger.WithError(err).ErrorWithFields("Periodic flush failed", map[string]interface{}{
			"iteration": r.iteration,
			"collected": len(snapshot),
			"failures":  r.flushFailures,
		})
	} else {
		r.newlyAdded += res.Added
		r.mu.Lock()
		if res.Total > r.persisted {
			r.persisted = res.Total
		}
		r.mu.Unlock()
	}

	if r.progress != nil {
		r.progress(Progress{
			Iteration:      r.iteration,
			Collected:      len(snapshot),
			Persisted:      r.Persisted(),
			NoGrowthStreak: r.streak,
		})
	}
}

// Snapshot returns the accumulated records in first-seen order. It is safe
// to call from another goroutine while Collect runs.
func (r *Run) Snapshot() []models.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Record, len(r.order))
	copy(out, r.order)
	return out
}

// Persisted returns the store size after the last successful periodic
// flush, or 0 before any flush succeeded.
func (r *Run) Persisted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persisted
}

func (r *Run) collected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *Run) limitReached() bool {
	return r.cfg.MaxRecords > 0 && r.collected() >= r.cfg.MaxRecords
}

func (r *Run) result() Result {
	records := r.Snapshot()
	if r.cfg.MaxRecords > 0 && len(records) > r.cfg.MaxRecords {
		records = records[:r.cfg.MaxRecords]
	}
	return Result{
		Records:       records,
		Iterations:    r.iteration,
		MaxRecords:    r.cfg.MaxRecords,
		Exhausted:     r.streak >= r.cfg.MaxNoGrowthStreak,
		LimitReached:  r.limitReached(),
		Persisted:     r.Persisted(),
		NewlyAdded:    r.newlyAdded,
		FlushFailures: r.flushFailures,
		LastFlushErr:  r.lastFlushErr,
	}
}

// Result summarizes a finished or aborted collection
type Result struct {
	Records    []models.Record
	Iterations int
	MaxRecords int
	// Exhausted is set when the no-growth streak ended the loop
	Exhausted    bool
	LimitReached bool
	// Persisted is the store size after the last successful periodic flush
	Persisted     int
	NewlyAdded    int
	FlushFailures int
	LastFlushErr  error
}

// ExhaustedBeforeLimit reports a finite limit that the feed could not satisfy
func (r Result) ExhaustedBeforeLimit() bool {
	return r.Exhausted && r.MaxRecords > 0 && len(r.Records) < r.MaxRecords
}

// Summary describes how the loop ended, e.g. "exhausted before limit: 80/500"
func (r Result) Summary() string {
	switch {
	case r.ExhaustedBeforeLimit():
		return fmt.Sprintf("exhausted before limit: %d/%d", len(r.Records), r.MaxRecords)
	case r.LimitReached:
		return fmt.Sprintf("limit reached: %d/%d", len(r.Records), r.MaxRecords)
	case r.Exhausted:
		return fmt.Sprintf("feed exhausted: %d records", len(r.Records))
	default:
		return fmt.Sprintf("stopped after %d iterations: %d records", r.Iterations, len(r.Records))
	}
}
