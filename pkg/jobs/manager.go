package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"xscraper/internal/worker"
	"xscraper/pkg/collector"
	"xscraper/pkg/interrupt"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/scraper"
)

// Hooks connect a running job back to its manager
type Hooks struct {
	Progress func(collector.Progress)
	Logger   logger.Logger
}

// Runner collects one job's search into output
type Runner func(ctx context.Context, p Params, output string, hooks Hooks) (scraper.Report, error)

// Options configures a Manager
type Options struct {
	// OutputDir receives one <jobID>_tweets.json store per job
	OutputDir string
	// LogLines bounds the output kept per job
	LogLines int
	// Retention is how long a finished job keeps its live entry and output
	// in memory. The store keeps its history after that.
	Retention time.Duration
}

// Manager accepts search jobs, runs them on a worker pool and keeps their
// history in a Store
type Manager struct {
	store   *Store
	pool    *worker.Pool
	limiter ratelimit.Limiter
	run     Runner
	opts    Options
	logger  logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	jobs    map[string]*liveJob
	drained chan struct{}
}

type liveJob struct {
	mu     sync.Mutex
	job    Job
	ctx    context.Context
	cancel context.CancelFunc
	logs   *LogRing
	once   sync.Once
	done   chan struct{}
}

func (lj *liveJob) snapshot(withLogs bool) Job {
	lj.mu.Lock()
	j := lj.job
	lj.mu.Unlock()
	if withLogs {
		j.Output = lj.logs.Lines()
	}
	return j
}

func (lj *liveJob) update(fn func(*Job)) {
	lj.mu.Lock()
	defer lj.mu.Unlock()
	fn(&lj.job)
}

// NewManager recovers jobs a previous process left running, then starts
// the pool. limiter throttles Submit and may be nil.
func NewManager(store *Store, pool *worker.Pool, limiter ratelimit.Limiter, run Runner, opts Options, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.LogLines <= 0 {
		opts.LogLines = 200
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "out"
	}
	if opts.Retention <= 0 {
		opts.Retention = 10 * time.Minute
	}

	recovered, err := store.FailInterrupted(context.Background(), time.Now())
	if err != nil {
		return nil, err
	}
	if recovered > 0 {
		log.WarnWithFields("Marked interrupted jobs as failed", map[string]interface{}{
			"jobs": recovered,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:   store,
		pool:    pool,
		limiter: limiter,
		run:     run,
		opts:    opts,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*liveJob),
		drained: make(chan struct{}),
	}

	pool.Start()
	go m.drainResults()
	return m, nil
}

func (m *Manager) drainResults() {
	defer close(m.drained)
	for result := range m.pool.Results() {
		m.logger.DebugWithFields("Worker released job", map[string]interface{}{
			"job_id":   result.Job.ID,
			"duration": result.Duration,
			"success":  result.Success,
		})
	}
}

// Submit validates p and queues a new job
func (m *Manager) Submit(ctx context.Context, p Params) (Job, error) {
	if err := p.Validate(); err != nil {
		return Job{}, err
	}
	if m.limiter != nil && !m.limiter.Allow() {
		return Job{}, ErrRateLimited
	}

	id := uuid.NewString()
	job := Job{
		ID:        id,
		Status:    StatusQueued,
		Params:    p,
		OutFile:   filepath.Join(m.opts.OutputDir, id+"_tweets.json"),
		StartTime: time.Now().UTC(),
	}
	if err := m.store.Insert(ctx, job); err != nil {
		return Job{}, err
	}

	jobCtx, cancel := context.WithCancel(m.ctx)
	lj := &liveJob{
		job:    job,
		ctx:    jobCtx,
		cancel: cancel,
		logs:   NewLogRing(m.opts.LogLines),
		done:   make(chan struct{}),
	}
	lj.logs.Add(fmt.Sprintf("Queued search %q", p.SearchQuery().Terms()), false)

	m.mu.Lock()
	m.jobs[id] = lj
	m.mu.Unlock()

	err := m.pool.Submit(worker.Job{
		ID:  id,
		Run: func(context.Context) error { return m.execute(lj) },
	})
	if err != nil {
		cancel()
		m.finish(lj, StatusFailed, func(j *Job) { j.Error = err.Error() })
		return lj.snapshot(false), fmt.Errorf("failed to queue job: %w", err)
	}

	m.logger.InfoWithFields("Job submitted", map[string]interface{}{
		"job_id":  id,
		"outfile": job.OutFile,
	})
	return lj.snapshot(false), nil
}

// execute runs a queued job to its terminal state
func (m *Manager) execute(lj *liveJob) error {
	started := false
	lj.update(func(j *Job) {
		if lj.ctx.Err() == nil {
			j.Status = StatusRunning
			started = true
		}
	})
	if !started {
		m.finish(lj, StatusStopped, func(j *Job) { j.Summary = "stopped before start" })
		return nil
	}
	job := lj.snapshot(false)
	if err := m.store.Update(context.Background(), job); err != nil {
		m.logger.WithError(err).Warn("Failed to record job start")
	}
	lj.logs.Add("Collection started", false)

	jobLog := logger.Redirect(m.logger.WithField("job_id", job.ID), lj.logs)
	report, err := m.run(lj.ctx, job.Params, job.OutFile, Hooks{
		Logger: jobLog,
		Progress: func(p collector.Progress) {
			lj.update(func(j *Job) {
				if p.Collected > j.Collected {
					j.Collected = p.Collected
				}
				if p.Persisted > j.Persisted {
					j.Persisted = p.Persisted
				}
			})
		},
	})

	status := StatusFailed
	switch report.Outcome.State {
	case interrupt.StateCompleted:
		status = StatusCompleted
	case interrupt.StateStopped:
		status = StatusStopped
	}
	m.finish(lj, status, func(j *Job) {
		if n := len(report.Result.Records); n > j.Collected {
			j.Collected = n
		}
		if report.Outcome.Persisted > j.Persisted {
			j.Persisted = report.Outcome.Persisted
		}
		j.Summary = report.Summary()
		if err != nil {
			j.Error = err.Error()
		}
	})
	return err
}

// finish moves a job to its terminal state once
func (m *Manager) finish(lj *liveJob, status Status, apply func(*Job)) {
	lj.once.Do(func() {
		now := time.Now().UTC()
		lj.update(func(j *Job) {
			j.Status = status
			j.EndTime = &now
			if apply != nil {
				apply(j)
			}
		})
		job := lj.snapshot(false)

		line := fmt.Sprintf("Job %s: %s", status, job.Summary)
		if job.Error != "" {
			line = fmt.Sprintf("Job %s: %s", status, job.Error)
		}
		lj.logs.Add(line, status == StatusFailed)

		if err := m.store.Update(context.Background(), job); err != nil {
			m.logger.WithError(err).ErrorWithFields("Failed to record job outcome", map[string]interface{}{
				"job_id": job.ID,
			})
		}
		m.logger.InfoWithFields("Job finished", map[string]interface{}{
			"job_id":    job.ID,
			"status":    string(status),
			"collected": job.Collected,
			"persisted": job.Persisted,
		})
		close(lj.done)
		time.AfterFunc(m.opts.Retention, func() { m.forget(job.ID, lj) })
	})
}

// forget drops a finished job's live entry
func (m *Manager) forget(id string, lj *liveJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobs[id] == lj {
		delete(m.jobs, id)
	}
}

// Get returns a job. Jobs of this process carry their recent output.
func (m *Manager) Get(ctx context.Context, id string) (Job, error) {
	if lj := m.lookup(id); lj != nil {
		return lj.snapshot(true), nil
	}
	return m.store.Get(ctx, id)
}

// List returns every known job, newest first
func (m *Manager) List(ctx context.Context) ([]Job, error) {
	jobs, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := range jobs {
		if lj := m.lookup(j.ID); lj != nil {
			jobs[i] = lj.snapshot(false)
		}
	}
	return jobs, nil
}

// Stop cancels a queued or running job and waits, until ctx is done, for
// its final flush. The returned job reflects the state at return.
func (m *Manager) Stop(ctx context.Context, id string) (Job, error) {
	lj := m.lookup(id)
	if lj == nil {
		job, err := m.store.Get(ctx, id)
		if err != nil {
			return Job{}, err
		}
		return job, ErrNotActive
	}

	job := lj.snapshot(false)
	if !job.Status.Active() {
		return job, ErrNotActive
	}

	lj.logs.Add("Stop requested, saving collected records", false)
	lj.cancel()
	// execute only starts a job whose context is live, so a job still
	// queued after cancel never runs
	queued := false
	lj.update(func(j *Job) { queued = j.Status == StatusQueued })
	if queued {
		m.finish(lj, StatusStopped, func(j *Job) { j.Summary = "stopped before start" })
	}

	select {
	case <-lj.done:
	case <-ctx.Done():
	}
	return lj.snapshot(false), nil
}

// Shutdown stops every job, waits for their final flushes and the pool,
// until ctx is done
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	stopped := make(chan struct{})
	go func() {
		m.pool.Stop()
		<-m.drained
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobs still running at shutdown: %w", ctx.Err())
	}
}

func (m *Manager) lookup(id string) *liveJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}
