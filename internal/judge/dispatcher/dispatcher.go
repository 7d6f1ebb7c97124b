package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

const (
	defaultWorkers      = 4
	defaultErrorBackoff = 1 * time.Second
)

// JobSource yields the next queued job, or (nil, nil) when none is ready.
type JobSource interface {
	Dequeue(ctx context.Context) (*model.Job, error)
}

// Evaluator runs one job to completion.
type Evaluator interface {
	Evaluate(ctx context.Context, job *model.Job) error
}

// Config wires the dispatcher.
type Config struct {
	Source    JobSource
	Evaluator Evaluator
	// Workers caps concurrent evaluations. Zero means the default.
	Workers int
	// ErrorBackoff delays the consume loop after a dequeue failure.
	ErrorBackoff time.Duration
}

// Dispatcher pulls jobs from the queue and fans them out to a bounded pool
// of workers. A panicking evaluation takes down its worker slot only, never
// the consume loop.
type Dispatcher struct {
	source    JobSource
	evaluator Evaluator
	backoff   time.Duration
	sem       chan struct{}
	wg        sync.WaitGroup
}

func New(cfg Config) (*Dispatcher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("job source is required")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	backoff := cfg.ErrorBackoff
	if backoff <= 0 {
		backoff = defaultErrorBackoff
	}
	return &Dispatcher{
		source:    cfg.Source,
		evaluator: cfg.Evaluator,
		backoff:   backoff,
		sem:       make(chan struct{}, workers),
	}, nil
}

// Run consumes jobs until the context is cancelled. It blocks; run it from
// its own goroutine when the caller has other work to do.
func (d *Dispatcher) Run(ctx context.Context) {
	logger.Info(ctx, "dispatcher started", zap.Int("workers", cap(d.sem)))
	for {
		if ctx.Err() != nil {
			logger.Info(ctx, "dispatcher stopping")
			return
		}

		job, err := d.source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "dispatcher stopping")
				return
			}
			logger.Warn(ctx, "dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(d.backoff):
			}
			continue
		}
		if job == nil {
			continue
		}

		// The job is already off the queue, so it always gets a worker
		// slot, even when shutdown races the pop. The handler runs on a
		// detached context: cancelling the consume loop stops intake
		// while Drain lets in-flight evaluations reach a terminal
		// status instead of abandoning them mid-run.
		d.sem <- struct{}{}
		d.wg.Add(1)
		go d.handle(context.WithoutCancel(ctx), job)
	}
}

func (d *Dispatcher) handle(ctx context.Context, job *model.Job) {
	defer d.wg.Done()
	defer func() { <-d.sem }()
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "evaluation panicked",
				zap.String("submission_id", job.SubmissionID),
				zap.Any("panic", r))
		}
	}()

	if err := d.evaluator.Evaluate(ctx, job); err != nil {
		logger.Warn(ctx, "evaluation aborted",
			zap.String("submission_id", job.SubmissionID), zap.Error(err))
	}
}

// Drain waits for in-flight evaluations up to the timeout. It reports
// whether all workers finished.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
