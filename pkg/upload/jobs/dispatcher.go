// Package jobs implements the in-process, bounded-retry JobDispatcher that
// hands completed uploads off to the downstream transcode-and-pin pipeline.
// The core upload service only depends on the service.Dispatcher interface;
// a durable broker (SQS, NATS, a Postgres-backed queue) can replace this
// package without touching the service layer.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/reelverse/upload-service/internal/logger"
	"github.com/reelverse/upload-service/pkg/upload/service"
)

// ErrQueueFull is returned by Enqueue when the in-process queue has no room
// left. Per the enqueue-failure design decision, callers log and continue
// rather than failing the triggering upload response.
var ErrQueueFull = errors.New("job queue is full")

// Handler processes one completed upload. It must be idempotent on
// job.SessionID: the dispatcher retries on error, and a durable broker
// substituted for this package may redeliver.
type Handler func(ctx context.Context, job service.CompletionJob) error

// Config bounds the dispatcher's worker pool and retry behavior.
type Config struct {
	// Workers is the number of concurrent job processors. Default 4.
	Workers int

	// QueueSize is the capacity of the in-process job channel. Default 256.
	QueueSize int

	// MaxAttempts is the number of times a job is handed to Handler before
	// being given up on. Default 3.
	MaxAttempts int

	// RetryBackoff is the delay between attempts. Default 5s.
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 5 * time.Second
	}
	return c
}

// Dispatcher is the in-process JobDispatcher. It satisfies
// service.Dispatcher.
type Dispatcher struct {
	handler Handler
	cfg     Config
	queue   chan service.CompletionJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Dispatcher. It will not process jobs until Start is called.
func New(handler Handler, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		handler: handler,
		cfg:     cfg,
		queue:   make(chan service.CompletionJob, cfg.QueueSize),
	}
}

// Start launches the worker pool. It runs until Stop is called or ctx is
// cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop drains in-flight workers and blocks until they exit. Queued-but-
// unstarted jobs are dropped.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// Enqueue submits a completed upload for downstream processing. It never
// blocks: a full queue returns ErrQueueFull immediately.
func (d *Dispatcher) Enqueue(ctx context.Context, job service.CompletionJob) error {
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case job := <-d.queue:
			d.process(job)
		}
	}
}

func (d *Dispatcher) process(job service.CompletionJob) {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err := d.handler(d.ctx, job); err != nil {
			lastErr = err
			logger.Warn("job attempt failed", logger.SessionID(job.SessionID), logger.Attempt(attempt), logger.Err(err))

			select {
			case <-d.ctx.Done():
				return
			case <-time.After(d.cfg.RetryBackoff):
			}
			continue
		}
		return
	}

	logger.Error("job exhausted retries, giving up", logger.SessionID(job.SessionID), logger.Attempts(d.cfg.MaxAttempts), logger.Err(lastErr))
}
