package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/internal/worker"
	"xscraper/pkg/collector"
	"xscraper/pkg/config"
	"xscraper/pkg/interrupt"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/scraper"
	"xscraper/pkg/store"
)

func newTestManager(t *testing.T, run Runner, limiter ratelimit.Limiter) (*Manager, *Store) {
	t.Helper()
	st, err := OpenStore(":memory:")
	require.NoError(t, err)

	pool := worker.NewPool(1, 8, nil, logger.NewNopLogger())
	m, err := NewManager(st, pool, limiter, run, Options{OutputDir: t.TempDir(), LogLines: 10}, logger.NewNopLogger())
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, m.Shutdown(ctx))
		st.Close()
	})
	return m, st
}

func waitForStatus(t *testing.T, m *Manager, id string, want Status) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		j, err := m.Get(context.Background(), id)
		if err != nil {
			return false
		}
		job = j
		return j.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

// writingRunner flushes two records into the job store and completes
func writingRunner(ctx context.Context, p Params, output string, hooks Hooks) (scraper.Report, error) {
	records := []models.Record{{ID: "1", Body: "a"}, {ID: "2", Body: "b"}}
	res, err := store.NewFileStore(output, nil).Flush(ctx, records)
	if err != nil {
		return scraper.Report{}, err
	}
	hooks.Progress(collector.Progress{Iteration: 1, Collected: 2, Persisted: res.Total})
	return scraper.Report{
		Outcome: interrupt.Outcome{State: interrupt.StateCompleted, Persisted: res.Total},
		Result:  collector.Result{Records: records, Exhausted: true},
	}, nil
}

// blockingRunner runs until its job is cancelled
func blockingRunner(started chan<- string) Runner {
	return func(ctx context.Context, p Params, output string, hooks Hooks) (scraper.Report, error) {
		hooks.Progress(collector.Progress{Iteration: 1, Collected: 1, Persisted: 1})
		started <- output
		<-ctx.Done()
		return scraper.Report{
			Outcome: interrupt.Outcome{State: interrupt.StateStopped, Reason: interrupt.ReasonCancelled, Persisted: 1},
		}, nil
	}
}

func TestSubmitRunsToCompletion(t *testing.T) {
	m, _ := newTestManager(t, writingRunner, nil)

	job, err := m.Submit(context.Background(), Params{Query: "golang", Limit: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, job.ID+"_tweets.json", filepath.Base(job.OutFile))

	done := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, 2, done.Collected)
	assert.Equal(t, 2, done.Persisted)
	assert.NotNil(t, done.EndTime)
	assert.Equal(t, "feed exhausted: 2 records, 2 records saved", done.Summary)
	require.NotEmpty(t, done.Output)
	assert.Contains(t, done.Output[len(done.Output)-1].Text, "Job completed")

	records, err := store.Load(done.OutFile)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSubmitValidates(t *testing.T) {
	m, _ := newTestManager(t, writingRunner, nil)

	_, err := m.Submit(context.Background(), Params{})
	assert.True(t, errors.Is(err, ErrInvalidParams))

	_, err = m.Submit(context.Background(), Params{Query: "golang", Tab: "likes"})
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestSubmitRateLimited(t *testing.T) {
	m, _ := newTestManager(t, writingRunner, ratelimit.NewTokenBucket(1, time.Hour))

	_, err := m.Submit(context.Background(), Params{Query: "golang"})
	require.NoError(t, err)

	_, err = m.Submit(context.Background(), Params{Query: "golang"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestStopRunningJob(t *testing.T) {
	started := make(chan string, 1)
	m, st := newTestManager(t, blockingRunner(started), nil)

	job, err := m.Submit(context.Background(), Params{User: "gopher"})
	require.NoError(t, err)
	<-started

	running, err := m.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, running.Status)
	assert.Equal(t, 1, running.Collected)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stopped, err := m.Stop(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, stopped.Status)
	assert.Equal(t, 1, stopped.Persisted)

	persisted, err := st.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, persisted.Status)

	_, err = m.Stop(ctx, job.ID)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestStopQueuedJob(t *testing.T) {
	started := make(chan string, 2)
	m, _ := newTestManager(t, blockingRunner(started), nil)

	first, err := m.Submit(context.Background(), Params{Query: "first"})
	require.NoError(t, err)
	<-started

	second, err := m.Submit(context.Background(), Params{Query: "second"})
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, second.Status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stopped, err := m.Stop(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, stopped.Status)
	assert.Equal(t, "stopped before start", stopped.Summary)

	_, err = m.Stop(ctx, first.ID)
	require.NoError(t, err)
}

func TestStopUnknownJob(t *testing.T) {
	m, _ := newTestManager(t, writingRunner, nil)

	_, err := m.Stop(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinishedJobsLeaveMemory(t *testing.T) {
	st, err := OpenStore(":memory:")
	require.NoError(t, err)
	pool := worker.NewPool(1, 2, nil, logger.NewNopLogger())
	m, err := NewManager(st, pool, nil, writingRunner, Options{
		OutputDir: t.TempDir(),
		Retention: 20 * time.Millisecond,
	}, logger.NewNopLogger())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, m.Shutdown(context.Background()))
		st.Close()
	}()

	job, err := m.Submit(context.Background(), Params{Query: "golang"})
	require.NoError(t, err)
	waitForStatus(t, m, job.ID, StatusCompleted)

	require.Eventually(t, func() bool {
		return m.lookup(job.ID) == nil
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := m.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, 2, stored.Persisted)
	assert.Empty(t, stored.Output)

	stopped, err := m.Stop(context.Background(), job.ID)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, job.ID, stopped.ID)
	assert.Equal(t, StatusCompleted, stopped.Status)
}

func TestStopJobFromHistory(t *testing.T) {
	m, st := newTestManager(t, writingRunner, nil)

	end := time.Now().UTC()
	require.NoError(t, st.Insert(context.Background(), Job{
		ID:        "earlier",
		Status:    StatusStopped,
		Params:    Params{Query: "golang"},
		OutFile:   "out/earlier_tweets.json",
		StartTime: end.Add(-time.Minute),
		EndTime:   &end,
		Persisted: 12,
	}))

	job, err := m.Stop(context.Background(), "earlier")
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, StatusStopped, job.Status)
	assert.Equal(t, 12, job.Persisted)
}

func TestFailedRunKeepsError(t *testing.T) {
	failing := func(ctx context.Context, p Params, output string, hooks Hooks) (scraper.Report, error) {
		err := errors.New("engine_fault error in open: net::ERR_NAME_NOT_RESOLVED")
		return scraper.Report{Outcome: interrupt.Outcome{State: interrupt.StateFailed, Err: err}}, err
	}
	m, _ := newTestManager(t, failing, nil)

	job, err := m.Submit(context.Background(), Params{Query: "golang"})
	require.NoError(t, err)

	failed := waitForStatus(t, m, job.ID, StatusFailed)
	assert.Contains(t, failed.Error, "ERR_NAME_NOT_RESOLVED")
	assert.True(t, failed.Output[len(failed.Output)-1].IsError)
}

func TestListNewestFirst(t *testing.T) {
	m, _ := newTestManager(t, writingRunner, nil)

	a, err := m.Submit(context.Background(), Params{Query: "a"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	b, err := m.Submit(context.Background(), Params{Query: "b"})
	require.NoError(t, err)

	waitForStatus(t, m, a.ID, StatusCompleted)
	waitForStatus(t, m, b.ID, StatusCompleted)

	jobs, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, b.ID, jobs[0].ID)
	assert.Equal(t, a.ID, jobs[1].ID)
	assert.Empty(t, jobs[0].Output, "listing omits job output")
}

func TestCrashedJobsAreFailedOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")

	st, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Insert(context.Background(), Job{
		ID:        "crashed",
		Status:    StatusRunning,
		Params:    Params{Query: "golang"},
		OutFile:   "out/crashed_tweets.json",
		StartTime: time.Now(),
	}))
	require.NoError(t, st.Close())

	st, err = OpenStore(path)
	require.NoError(t, err)
	pool := worker.NewPool(1, 2, nil, logger.NewNopLogger())
	m, err := NewManager(st, pool, nil, writingRunner, Options{OutputDir: t.TempDir()}, logger.NewNopLogger())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, m.Shutdown(context.Background()))
		st.Close()
	}()

	job, err := m.Get(context.Background(), "crashed")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "interrupted by server restart", job.Error)
	assert.NotNil(t, job.EndTime)
}

func TestStoreRoundTrip(t *testing.T) {
	st, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	headless := false
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	job := Job{
		ID:        "abc",
		Status:    StatusQueued,
		Params:    Params{User: "gopher", Query: "go", Limit: 50, Headless: &headless},
		OutFile:   "out/abc_tweets.json",
		StartTime: start,
	}
	require.NoError(t, st.Insert(context.Background(), job))

	end := start.Add(time.Minute)
	job.Status = StatusCompleted
	job.Collected = 50
	job.Persisted = 50
	job.EndTime = &end
	job.Summary = "limit reached: 50/50"
	require.NoError(t, st.Update(context.Background(), job))

	got, err := st.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "gopher", got.Params.User)
	require.NotNil(t, got.Params.Headless)
	assert.False(t, *got.Params.Headless)
	assert.True(t, start.Equal(got.StartTime))
	require.NotNil(t, got.EndTime)
	assert.True(t, end.Equal(*got.EndTime))
	assert.Equal(t, "limit reached: 50/50", got.Summary)

	assert.ErrorIs(t, st.Update(context.Background(), Job{ID: "missing"}), ErrNotFound)
}

func TestLogRing(t *testing.T) {
	ring := NewLogRing(3)
	_, err := ring.Write([]byte("12:00:00 INF | one\n12:00:01 ERR | two\n"))
	require.NoError(t, err)
	ring.Add("three", false)
	ring.Add("four", false)

	lines := ring.Lines()
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0].Text, "two"))
	assert.True(t, lines[0].IsError)
	assert.Equal(t, "four", lines[2].Text)
}

func TestParamsSearchQuery(t *testing.T) {
	q := Params{User: "@gopher", Query: "generics", Lang: "en", Since: "2024-01-01"}.SearchQuery()
	assert.Equal(t, "latest", q.Tab)
	assert.Equal(t, "lang:en from:gopher generics since:2024-01-01", q.Terms())
}

func TestScraperRunnerReportsLaunchFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	run := ScraperRunner(cfg, scraper.WithBrowserFactory(func(ctx context.Context) (scraper.Browser, error) {
		return nil, errors.New("chrome not found")
	}))

	report, err := run(context.Background(), Params{Query: "golang"}, filepath.Join(t.TempDir(), "x.json"), Hooks{})
	require.Error(t, err)
	assert.Equal(t, interrupt.StateFailed, report.Outcome.State)
}
