package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Submit after Stop
	ErrStopped = errors.New("worker pool is shutting down")
)

// Job is one unit of work. Run receives the pool context, which is
// cancelled after Stop has drained the queue.
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// Result represents the result of a job
type Result struct {
	Job      Job
	Success  bool
	Error    error
	Duration time.Duration
}

// Pool runs jobs on a fixed number of goroutines. Each job is independent:
// it owns whatever it collects and writes.
type Pool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	limiter     ratelimit.Limiter
	logger      logger.Logger

	mu      sync.Mutex
	stopped bool
}

// NewPool creates a pool. limiter paces job starts and may be nil.
func NewPool(numWorkers, queueSize int, limiter ratelimit.Limiter, log logger.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < numWorkers {
		queueSize = numWorkers * 2
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, queueSize),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		limiter:     limiter,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for the workers to finish the jobs
// already queued. Results must be drained for Stop to return.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.logger.Info("Stopping worker pool...")
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()
	p.logger.Info("Worker pool stopped")
}

// Submit queues a job without blocking
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobQueue <- job:
		p.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"job_id": job.ID,
			"queued": len(p.jobQueue),
		})
		return nil
	default:
		return ErrQueueFull
	}
}

// Results returns the result channel. It is closed by Stop.
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range p.jobQueue {
		p.resultQueue <- p.process(job, id)
	}

	p.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// process runs one job. A panic fails the job, not the worker.
func (p *Pool) process(job Job, workerID int) (result Result) {
	start := time.Now()
	result = Result{Job: job}

	defer func() {
		if v := recover(); v != nil {
			result.Error = fmt.Errorf("job panicked: %v", v)
		}
		result.Duration = time.Since(start)
		result.Success = result.Error == nil

		fields := map[string]interface{}{
			"worker_id": workerID,
			"job_id":    job.ID,
			"duration":  result.Duration,
		}
		if result.Error != nil {
			p.logger.WithError(result.Error).ErrorWithFields("Job failed", fields)
			return
		}
		p.logger.DebugWithFields("Job finished", fields)
	}()

	if p.limiter != nil && !p.limiter.Allow() {
		p.logger.DebugWithFields("Worker waiting for rate limit", map[string]interface{}{
			"worker_id": workerID,
			"job_id":    job.ID,
		})
		if err := ratelimit.WaitContext(p.ctx, p.limiter); err != nil {
			result.Error = err
			return result
		}
	}

	result.Error = job.Run(p.ctx)
	return result
}

// QueueSize returns the current number of jobs waiting
func (p *Pool) QueueSize() int {
	return len(p.jobQueue)
}

// Workers returns the number of workers
func (p *Pool) Workers() int {
	return p.numWorkers
}
