package api

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

type runIDKey struct{}

// WithRunID attaches a run identifier to ctx. Observers and history stores
// use it to group the events of one run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run identifier attached to ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ensureRunID returns ctx with a run ID, generating one when missing.
func ensureRunID(ctx context.Context) (context.Context, string) {
	if id := RunIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewRunID()
	return WithRunID(ctx, id), id
}

// Run ticks f until it completes.
//
// ctx is checked between ticks and its error is returned as-is; the flow is
// left where it stopped. Errors from actions and predicates are returned
// unchanged. Running an already completed flow returns nil without doing
// anything; call Reset first to run it again.
func Run(ctx context.Context, f *Flow) error {
	if f == nil {
		return ErrNilFlow
	}
	if f.Len() == 0 {
		return ErrNoSteps
	}
	ctx, _ = ensureRunID(ctx)

	for !f.Completed() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.Tick(ctx); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// RunAsync runs f on a new goroutine and returns a handle to wait on.
// The caller must not tick f while the execution is in flight.
func RunAsync(ctx context.Context, f *Flow) *Execution {
	ctx, id := ensureRunID(ctx)
	exec := NewExecution(id)
	go func() {
		exec.Finish(Run(ctx, f))
	}()
	return exec
}

// Execution is a handle on a flow being driven in the background.
type Execution struct {
	id   string
	done chan struct{}
	once sync.Once
	err  error
}

// NewExecution returns a pending execution. Drivers call Finish exactly
// once when the flow stops.
func NewExecution(id string) *Execution {
	return &Execution{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the run identifier.
func (e *Execution) ID() string { return e.id }

// Done is closed when the execution has finished.
func (e *Execution) Done() <-chan struct{} { return e.done }

// Wait blocks until the execution has finished and returns its error.
func (e *Execution) Wait() error {
	<-e.done
	return e.err
}

// Err returns the final error, or nil while the execution is running.
func (e *Execution) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// Finish records err and releases waiters. Only the first call has effect.
func (e *Execution) Finish(err error) {
	e.once.Do(func() {
		e.err = err
		close(e.done)
	})
}
