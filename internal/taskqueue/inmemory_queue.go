package taskqueue

import (
	"context"
)

// DefaultCapacity is the capacity used when NewInMemoryQueue is given a
// non-positive one.
const DefaultCapacity = 1024

// InMemoryQueue is a FIFO of tasks backed by a buffered channel.
// It is safe for concurrent use.
type InMemoryQueue struct {
	ch chan *Task
}

// NewInMemoryQueue creates a queue holding up to capacity tasks.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryQueue{ch: make(chan *Task, capacity)}
}

var _ Queue = (*InMemoryQueue)(nil)

func (q *InMemoryQueue) Enqueue(ctx context.Context, t *Task) error {
	if t == nil {
		return ErrNilTask
	}
	select {
	case q.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t := <-q.ch:
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Drain removes every task currently buffered without blocking.
func (q *InMemoryQueue) Drain() []*Task {
	var out []*Task
	for {
		select {
		case t := <-q.ch:
			out = append(out, t)
		default:
			return out
		}
	}
}

func (q *InMemoryQueue) Len() int { return len(q.ch) }

func (q *InMemoryQueue) Cap() int { return cap(q.ch) }
