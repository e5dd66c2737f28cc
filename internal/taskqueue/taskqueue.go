package taskqueue

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/logicflow/pkg/api"
)

// ErrNilTask is returned when a nil task is enqueued.
var ErrNilTask = errors.New("taskqueue: nil task")

// Task is one flow waiting for its next turn on a worker.
//
// Tasks carry live pointers and are never serialized: the queue only
// decides which flow is ticked next.
type Task struct {
	// ID is the run identifier, equal to Execution.ID().
	ID string

	Flow      *api.Flow
	Execution *api.Execution

	// Context is the submitter's context. Ticks run under it, and its
	// cancellation ends the run.
	Context context.Context

	// Ticks counts the ticks performed so far.
	Ticks int

	EnqueuedAt time.Time
}

// Queue orders flows waiting for a turn. A task is owned by whoever last
// dequeued it until it is enqueued again.
type Queue interface {
	// Enqueue adds a task to the back of the queue, blocking while the
	// queue is full or until ctx is cancelled.
	Enqueue(ctx context.Context, t *Task) error

	// Dequeue removes and returns the next task, blocking until one is available
	// or the context is cancelled.
	Dequeue(ctx context.Context) (*Task, error)

	// Drain removes and returns every queued task without blocking.
	Drain() []*Task

	// Len returns the approximate number of tasks queued.
	Len() int

	// Cap returns the number of tasks the queue can hold without blocking
	// Enqueue.
	Cap() int
}
