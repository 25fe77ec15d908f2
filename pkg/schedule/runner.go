package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kampyn/ordering-gateway/pkg/logger"
	"github.com/kampyn/ordering-gateway/pkg/metrics"
)

const defaultInterval = time.Minute

// RunnerParams configure the scheduler.
type RunnerParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.SyncJobMetrics
}

// Runner executes registered tasks, each on its own fixed cadence, until the
// context is canceled. Cancellation stops the tickers before the next tick;
// an in-flight run finishes and its result is still recorded.
type Runner struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.SyncJobMetrics
}

// NewRunner builds a scheduler runner.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	lock := params.Lock
	if lock == nil {
		lock = NopLock{}
	}
	return &Runner{
		logg:     params.Logger,
		registry: registry,
		lock:     lock,
		metrics:  params.Metrics,
	}, nil
}

// Run starts every registered task and blocks until the context is canceled.
// Each task runs once immediately, then on its own ticker.
func (r *Runner) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var wg sync.WaitGroup
	for _, task := range r.registry.Tasks() {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			r.runLoop(ctx, task)
		}(task)
	}
	wg.Wait()
	return ctx.Err()
}

func (r *Runner) runLoop(ctx context.Context, task Task) {
	interval := task.Interval()
	if interval <= 0 {
		interval = defaultInterval
	}

	r.runGuarded(ctx, task)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			taskCtx := r.logg.WithField(ctx, "task", task.Name())
			r.logg.Info(taskCtx, "scheduler task stopped")
			return
		case <-ticker.C:
			r.runGuarded(ctx, task)
		}
	}
}

func (r *Runner) runGuarded(ctx context.Context, task Task) {
	locked, err := r.lock.Acquire(ctx, task.Name())
	if err != nil {
		r.logg.Error(ctx, "lock acquire failed", err)
		return
	}
	if !locked {
		taskCtx := r.logg.WithField(ctx, "task", task.Name())
		r.logg.Info(taskCtx, "another instance holds the lock; skipping run")
		return
	}
	defer func() {
		if relErr := r.lock.Release(ctx, task.Name()); relErr != nil {
			r.logg.Error(ctx, "failed to release scheduler lock", relErr)
		}
	}()

	r.runTask(ctx, task)
}

func (r *Runner) runTask(ctx context.Context, task Task) {
	taskCtx := r.logg.WithField(ctx, "task", task.Name())
	start := time.Now()
	err := task.Run(taskCtx)
	duration := time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveDuration(task.Name(), duration)
	}
	taskCtx = r.logg.WithField(taskCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		r.logg.Error(taskCtx, "task failed", err)
		if r.metrics != nil {
			r.metrics.IncFailure(task.Name())
		}
		return
	}
	if r.metrics != nil {
		r.metrics.IncSuccess(task.Name())
	}
}
