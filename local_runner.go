package logicflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/petrijr/logicflow/internal/taskqueue"
	"github.com/petrijr/logicflow/pkg/worker"
)

// ErrRunnerStopped is delivered to runs still in flight when a LocalRunner
// is stopped.
var ErrRunnerStopped = errors.New("logicflow: local runner stopped")

// Re-export scheduler errors.
var (
	ErrAlreadySubmitted = worker.ErrAlreadySubmitted
	ErrQueueFull        = worker.ErrQueueFull
)

// LocalRunnerConfig configures a LocalRunner. Zero values pick defaults.
type LocalRunnerConfig struct {
	// QueueCapacity bounds the number of flows in flight. Default: 1024.
	QueueCapacity int

	// Concurrency is the number of worker goroutines used when StartWorkers
	// is called with a non-positive count. Default: 1.
	Concurrency int

	// TicksPerTurn is how many ticks a flow gets before yielding to the next
	// queued flow. Default: 1.
	TicksPerTurn int

	// Observer is attached to submitted flows that have no observer.
	Observer Observer

	// Logger receives worker errors and scheduler debug logs.
	// Default: slog.Default().
	Logger *slog.Logger
}

// LocalRunner bundles an in-memory task queue and a Worker to drive many
// independent flows from a small pool of goroutines.
//
// Each flow gets one turn (a tick, by default) and then goes back to the end
// of the queue, so long-running flows do not starve each other and no flow
// is ever ticked by two goroutines at once.
//
// Typical usage:
//
//	runner := logicflow.NewLocalRunner()
//	_ = runner.StartWorkers(ctx, 2)
//	defer runner.Stop()
//
//	exec, err := runner.Submit(ctx, logicflow.New("job").Do(work))
//	...
//	err = exec.Wait()
type LocalRunner struct {
	// Queue is the in-memory task queue used by the Worker.
	Queue taskqueue.Queue

	// Worker ticks flows taken from Queue.
	Worker *worker.Worker

	cfg    LocalRunnerConfig
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewLocalRunner constructs a LocalRunner with default config.
//
// This is intended for local development, tests, and simple single-process
// deployments.
func NewLocalRunner() *LocalRunner {
	return NewLocalRunnerWithConfig(LocalRunnerConfig{})
}

// NewLocalRunnerWithConfig constructs a LocalRunner from cfg.
func NewLocalRunnerWithConfig(cfg LocalRunnerConfig) *LocalRunner {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1024
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	q := taskqueue.NewInMemoryQueue(cfg.QueueCapacity)
	w := worker.NewWithConfig(q, worker.Config{
		TicksPerTurn: cfg.TicksPerTurn,
		Observer:     cfg.Observer,
		Logger:       logger,
	})

	return &LocalRunner{
		Queue:  q,
		Worker: w,
		cfg:    cfg,
		logger: logger,
	}
}

// StartWorkers starts 'concurrency' worker goroutines that continuously call
// Worker.ProcessOne(ctx) until the context is cancelled via Stop.
//
// If StartWorkers is called more than once without Stop, it returns an error.
func (r *LocalRunner) StartWorkers(ctx context.Context, concurrency int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("logicflow: LocalRunner already started")
	}

	if concurrency <= 0 {
		concurrency = r.cfg.Concurrency
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer r.wg.Done()

			for {
				_, err := r.Worker.ProcessOne(ctx)
				if ctx.Err() != nil {
					// Cancellation of the runner context is a clean shutdown signal.
					return
				}
				if err != nil {
					// Flow failures are delivered through their Execution; log
					// and keep going so a single bad flow doesn't kill the loop.
					r.logger.WarnContext(ctx, "local runner flow error", slog.Any("error", err))
				}
			}
		}()
	}

	return nil
}

// Stop cancels all worker goroutines started by StartWorkers and waits
// for them to exit. Runs still in flight finish with ErrRunnerStopped.
func (r *LocalRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()

	if n := r.Worker.Abort(ErrRunnerStopped); n > 0 {
		r.logger.Info("local runner stopped with flows in flight", slog.Int("aborted", n))
	}
}

// Submit queues the flow built by b. The returned Execution resolves when
// the flow completes, fails, or ctx is cancelled.
func (r *LocalRunner) Submit(ctx context.Context, b *FlowBuilder) (*Execution, error) {
	if b == nil {
		return nil, ErrNilFlow
	}
	return r.Worker.Submit(ctx, b.flow)
}

// SubmitFlow queues f. See Submit.
func (r *LocalRunner) SubmitFlow(ctx context.Context, f *Flow) (*Execution, error) {
	return r.Worker.Submit(ctx, f)
}
