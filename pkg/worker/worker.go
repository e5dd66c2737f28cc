package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/petrijr/logicflow/internal/taskqueue"
	"github.com/petrijr/logicflow/pkg/api"
)

var (
	// ErrAlreadySubmitted is returned when a flow is submitted while an
	// earlier submission of the same flow is still in flight.
	ErrAlreadySubmitted = errors.New("flow is already submitted")

	// ErrQueueFull is returned when the number of in-flight flows has
	// reached the queue capacity.
	ErrQueueFull = errors.New("task queue is full")
)

// Config controls how a Worker schedules flows.
type Config struct {
	// TicksPerTurn is how many ticks a flow gets each time it is dequeued
	// before going back to the end of the queue. Default: 1.
	TicksPerTurn int

	// Observer is set on submitted flows that have no observer of their own.
	Observer api.Observer

	// Logger receives debug logs about submissions and finished runs.
	// Default: slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.TicksPerTurn <= 0 {
		c.TicksPerTurn = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Worker pulls flows from a Queue and ticks them cooperatively.
//
// Each submitted flow sits in the queue at most once, so one flow is never
// ticked by two workers at the same time. Several goroutines calling
// ProcessOne interleave independent flows one turn at a time.
type Worker struct {
	queue taskqueue.Queue
	cfg   Config

	mu       sync.Mutex
	inflight map[*api.Flow]*api.Execution
}

// New creates a new Worker with default config.
func New(queue taskqueue.Queue) *Worker {
	return NewWithConfig(queue, Config{})
}

// NewWithConfig creates a new Worker with the given config.
func NewWithConfig(queue taskqueue.Queue, cfg Config) *Worker {
	return &Worker{
		queue:    queue,
		cfg:      cfg.withDefaults(),
		inflight: make(map[*api.Flow]*api.Execution),
	}
}

// InFlight returns the number of submitted flows that have not finished.
func (w *Worker) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inflight)
}

// Submit enqueues f to be driven to completion by ProcessOne and returns
// the handle of the run.
//
// The run ID is taken from ctx (see api.WithRunID) or generated. Ticks run
// under ctx, so cancelling it ends the run with ctx.Err(). The caller must
// not tick f until the execution is done.
func (w *Worker) Submit(ctx context.Context, f *api.Flow) (*api.Execution, error) {
	if f == nil {
		return nil, api.ErrNilFlow
	}
	if f.Len() == 0 {
		return nil, api.ErrNoSteps
	}

	id := api.RunIDFromContext(ctx)
	if id == "" {
		id = api.NewRunID()
		ctx = api.WithRunID(ctx, id)
	}
	exec := api.NewExecution(id)

	if f.Completed() {
		exec.Finish(nil)
		return exec, nil
	}

	w.mu.Lock()
	if _, ok := w.inflight[f]; ok {
		w.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	// Keeping in-flight flows within capacity means a re-enqueue after a
	// turn always finds room.
	if len(w.inflight) >= w.queue.Cap() {
		w.mu.Unlock()
		return nil, ErrQueueFull
	}
	if f.Observer() == nil && w.cfg.Observer != nil {
		f.SetObserver(w.cfg.Observer)
	}
	w.inflight[f] = exec
	w.mu.Unlock()

	task := &taskqueue.Task{
		ID:         id,
		Flow:       f,
		Execution:  exec,
		Context:    ctx,
		EnqueuedAt: time.Now(),
	}
	if err := w.queue.Enqueue(ctx, task); err != nil {
		w.release(f)
		return nil, err
	}

	w.cfg.Logger.DebugContext(ctx, "flow_submitted",
		slog.String("flow", f.Name()),
		slog.String("run_id", id),
	)
	return exec, nil
}

// ProcessOne pulls a single task from the queue and gives its flow one turn.
// Returns (processed, error):
//   - processed == false: no task was obtained; err is the dequeue error
//     (typically ctx cancellation).
//   - processed == true: a turn was taken; err is the flow's failure, if the
//     run ended with one. The same error is delivered through the run's
//     Execution.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	// Aborted runs may still have a task queued.
	select {
	case <-task.Execution.Done():
		return true, nil
	default:
	}

	runCtx := task.Context
	if runCtx == nil {
		runCtx = api.WithRunID(context.Background(), task.ID)
	}

	for i := 0; i < w.cfg.TicksPerTurn && !task.Flow.Completed(); i++ {
		if err := runCtx.Err(); err != nil {
			w.finish(runCtx, task, err)
			return true, err
		}
		if err := task.Flow.Tick(runCtx); err != nil {
			w.finish(runCtx, task, err)
			return true, err
		}
		task.Ticks++
	}

	if task.Flow.Completed() {
		w.finish(runCtx, task, nil)
		return true, nil
	}

	// Submit reserved room for this task, so the re-enqueue never blocks.
	// Cancelling ctx stops the worker, not the run.
	task.EnqueuedAt = time.Now()
	if err := w.queue.Enqueue(context.Background(), task); err != nil {
		w.finish(runCtx, task, err)
		return true, err
	}
	return true, nil
}

// Abort finishes every in-flight run with err and empties the queue. It
// returns the number of runs aborted. It must not be called while
// ProcessOne is running.
func (w *Worker) Abort(err error) int {
	w.queue.Drain()

	w.mu.Lock()
	pending := w.inflight
	w.inflight = make(map[*api.Flow]*api.Execution)
	w.mu.Unlock()

	for _, exec := range pending {
		exec.Finish(err)
	}
	return len(pending)
}

func (w *Worker) finish(ctx context.Context, task *taskqueue.Task, err error) {
	w.release(task.Flow)
	task.Execution.Finish(err)

	logger := w.cfg.Logger
	attrs := []any{
		slog.String("flow", task.Flow.Name()),
		slog.String("run_id", task.ID),
		slog.Int("ticks", task.Ticks),
	}
	if err != nil {
		logger.DebugContext(ctx, "flow_run_failed", append(attrs, slog.Any("error", err))...)
		return
	}
	logger.DebugContext(ctx, "flow_run_finished", attrs...)
}

func (w *Worker) release(f *api.Flow) {
	w.mu.Lock()
	delete(w.inflight, f)
	w.mu.Unlock()
}
