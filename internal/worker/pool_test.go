package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
)

func collect(pool *Pool) (*[]Result, *sync.WaitGroup) {
	var results []Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()
	return &results, &wg
}

func TestPoolRunsEveryJob(t *testing.T) {
	pool := NewPool(3, 16, ratelimit.NewTokenBucket(100, time.Second), logger.NewNopLogger())
	pool.Start()
	results, wg := collect(pool)

	var ran int32
	numJobs := 10
	for i := 0; i < numJobs; i++ {
		err := pool.Submit(Job{
			ID: fmt.Sprintf("job%d", i),
			Run: func(ctx context.Context) error {
				atomic.AddInt32(&ran, 1)
				time.Sleep(5 * time.Millisecond)
				return nil
			},
		})
		if err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	pool.Stop()
	wg.Wait()

	if len(*results) != numJobs {
		t.Errorf("Expected %d results, got %d", numJobs, len(*results))
	}
	if int(atomic.LoadInt32(&ran)) != numJobs {
		t.Errorf("Expected %d runs, got %d", numJobs, ran)
	}
	for _, r := range *results {
		if !r.Success {
			t.Errorf("Expected job %s to succeed", r.Job.ID)
		}
	}
}

func TestPoolReportsErrorsAndPanics(t *testing.T) {
	pool := NewPool(2, 4, nil, logger.NewNopLogger())
	pool.Start()
	results, wg := collect(pool)

	_ = pool.Submit(Job{ID: "fails", Run: func(ctx context.Context) error { return errors.New("login failed") }})
	_ = pool.Submit(Job{ID: "panics", Run: func(ctx context.Context) error { panic("boom") }})
	_ = pool.Submit(Job{ID: "works", Run: func(ctx context.Context) error { return nil }})

	pool.Stop()
	wg.Wait()

	byID := make(map[string]Result)
	for _, r := range *results {
		byID[r.Job.ID] = r
	}
	if byID["fails"].Success || byID["fails"].Error == nil {
		t.Error("Expected the failing job to report its error")
	}
	if byID["panics"].Success || byID["panics"].Error == nil {
		t.Error("Expected the panicking job to be reported as failed")
	}
	if !byID["works"].Success {
		t.Error("Expected the worker to survive a panicking job")
	}
}

func TestPoolConcurrency(t *testing.T) {
	pool := NewPool(3, 12, nil, logger.NewNopLogger())
	pool.Start()
	_, wg := collect(pool)

	var current, peak int32
	for i := 0; i < 9; i++ {
		_ = pool.Submit(Job{ID: fmt.Sprint(i), Run: func(ctx context.Context) error {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil
		}})
	}

	pool.Stop()
	wg.Wait()

	if peak > 3 {
		t.Errorf("Expected at most 3 concurrent jobs, got %d", peak)
	}
}

func TestPoolSubmitLimits(t *testing.T) {
	pool := NewPool(1, 1, nil, logger.NewNopLogger())

	// Not started: the single slot fills up
	if err := pool.Submit(Job{ID: "a", Run: func(ctx context.Context) error { return nil }}); err != nil {
		t.Fatalf("Expected first submit to succeed: %v", err)
	}
	if err := pool.Submit(Job{ID: "b", Run: func(ctx context.Context) error { return nil }}); err == nil {
		t.Error("Expected a full queue to reject the job")
	}

	pool.Start()
	_, wg := collect(pool)
	pool.Stop()
	wg.Wait()

	if err := pool.Submit(Job{ID: "c"}); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped after Stop, got %v", err)
	}
	pool.Stop()
}
