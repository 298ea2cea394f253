package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vytor/speakflash/internal/logger"
)

var (
	ErrQueueFull  = errors.New("worker queue full")
	ErrPoolClosed = errors.New("worker pool closed")
)

type Job interface {
	Run(context.Context) error
	Name() string
}

// Pool runs jobs on a fixed set of goroutines. Jobs already queued when Stop
// is called still run; the context passed to them is cancelled only after
// the queue has drained.
type Pool struct {
	mu      sync.RWMutex
	closed  bool
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	cancel  context.CancelFunc
	log     *logger.Logger
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d workers and queue size %d", workers, queueSize)
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		log:     log,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.log.Info("starting worker pool with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			workerLog := p.log.WithField("worker_id", id)
			workerLog.Debug("worker started")

			for job := range p.jobs {
				jobLog := workerLog.WithField("job", job.Name())
				start := time.Now()

				if err := job.Run(logger.NewContext(ctx, jobLog)); err != nil {
					jobLog.Error("job failed after %v: %v", time.Since(start), err)
				} else {
					jobLog.Debug("job completed in %v", time.Since(start))
				}
			}
			workerLog.Debug("worker shutting down (queue closed)")
		}(i + 1)
	}
}

// Stop refuses new jobs, waits for queued ones to finish and releases the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.log.Info("stopping worker pool")
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.log.Info("worker pool stopped")
}

// TrySubmit enqueues job without blocking.
func (p *Pool) TrySubmit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		p.log.Debug("submitted job: %s", job.Name())
		return nil
	default:
		return ErrQueueFull
	}
}
