// Package worker runs the two background processors against their job
// queues.
//
// Each processor is a single-threaded poll loop: fetch one job, process it
// to completion, fetch the next. Multiple instances may run against the same
// subscription; delivery is at-least-once with no ordering, so processing
// must be idempotent. A processor must:
//   - check persisted state before doing work (the status short-circuits),
//   - tolerate partial completion from a crashed prior attempt,
//   - never assume a clean starting state.
//
// There is no cancellation of an in-flight job: once pulled, it runs to
// completion or process exit, and redelivery is the sole recovery mechanism.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Processor handles one job to completion.
type Processor[J any] interface {
	Process(ctx context.Context, job J) error
}

// Default polling cadence.
const (
	DefaultIdleWait    = time.Second
	DefaultMaxIdleWait = 30 * time.Second
)

// Runner polls a queue and dispatches jobs to a processor. Repeated empty
// polls back off exponentially up to MaxIdleWait; any delivered job resets
// the wait. Shutdown happens between jobs via context cancellation.
type Runner[J any] struct {
	queue       Puller[J]
	processor   Processor[J]
	logger      *slog.Logger
	idleWait    time.Duration
	maxIdleWait time.Duration
}

// Puller is the consuming half of the queue contract.
type Puller[J any] interface {
	PullNext(ctx context.Context) (*J, error)
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Logger      *slog.Logger
	IdleWait    time.Duration // first wait after an empty poll
	MaxIdleWait time.Duration // backoff ceiling
}

// NewRunner creates a runner for one queue/processor pair.
func NewRunner[J any](queue Puller[J], processor Processor[J], cfg RunnerConfig) *Runner[J] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idle := cfg.IdleWait
	if idle <= 0 {
		idle = DefaultIdleWait
	}
	maxIdle := cfg.MaxIdleWait
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleWait
	}
	if maxIdle < idle {
		maxIdle = idle
	}
	return &Runner[J]{
		queue:       queue,
		processor:   processor,
		logger:      logger,
		idleWait:    idle,
		maxIdleWait: maxIdle,
	}
}

// Run polls until ctx is cancelled. Job failures are logged, never fatal:
// the job's persisted state plus queue redelivery decide what happens next.
func (r *Runner[J]) Run(ctx context.Context) error {
	r.logger.Info("processor started")
	wait := r.idleWait

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("processor stopping")
			return nil
		default:
		}

		job, err := r.queue.PullNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("processor stopping")
				return nil
			}
			r.logger.Error("pull failed", "error", err)
			if !r.sleep(ctx, wait) {
				return nil
			}
			wait = r.nextWait(wait)
			continue
		}

		if job == nil {
			if !r.sleep(ctx, wait) {
				return nil
			}
			wait = r.nextWait(wait)
			continue
		}
		wait = r.idleWait

		r.logger.Info("processing job", "job", fmt.Sprintf("%+v", *job))
		if err := r.processor.Process(ctx, *job); err != nil {
			r.logger.Error("job failed", "job", fmt.Sprintf("%+v", *job), "error", err)
			continue
		}
		r.logger.Info("job processed", "job", fmt.Sprintf("%+v", *job))
	}
}

func (r *Runner[J]) nextWait(wait time.Duration) time.Duration {
	wait *= 2
	if wait > r.maxIdleWait {
		wait = r.maxIdleWait
	}
	return wait
}

// sleep waits for d or until ctx is cancelled. Returns false on cancel.
func (r *Runner[J]) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
