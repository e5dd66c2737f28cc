package logicflow

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/logicflow/internal/persistence"
	"github.com/petrijr/logicflow/pkg/api"
)

// History is an append-only audit log of flow runs. It records what a run
// did, keyed by run ID; it cannot be used to restore a flow.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:history.db")
//	hist, err := logicflow.NewSQLiteHistory(db)
//	flow := logicflow.New("job").Do(work).WithObserver(hist.Observer())
//	exec := flow.RunAsync(ctx)
//	_ = exec.Wait()
//	events, _ := hist.Events(ctx, exec.ID())
type History struct {
	store     persistence.EventStore
	onErr     func(ctx context.Context, err error)
	retention time.Duration
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithAppendErrorHandler sets the function called when recording an event
// fails. Flows keep running either way. By default errors are dropped.
func WithAppendErrorHandler(fn func(ctx context.Context, err error)) HistoryOption {
	return func(h *History) {
		h.onErr = fn
	}
}

// WithRetention keeps a run's events for d after its last event. It
// applies to Redis histories; the in-memory and SQLite ones keep
// everything.
func WithRetention(d time.Duration) HistoryOption {
	return func(h *History) {
		h.retention = d
	}
}

func newHistory(store persistence.EventStore, opts ...HistoryOption) *History {
	h := &History{store: store}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewInMemoryHistory returns a History kept in process memory.
func NewInMemoryHistory(opts ...HistoryOption) *History {
	return newHistory(persistence.NewInMemoryEventStore(), opts...)
}

// NewSQLiteHistory returns a History stored in the flow_events table of db,
// creating the table if needed.
func NewSQLiteHistory(db *sql.DB, opts ...HistoryOption) (*History, error) {
	store, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return newHistory(store, opts...), nil
}

// NewRedisHistory returns a History stored in Redis lists under prefix.
func NewRedisHistory(client *redis.Client, prefix string, opts ...HistoryOption) *History {
	store := persistence.NewRedisEventStore(client, prefix)
	h := newHistory(store, opts...)
	store.WithTTL(h.retention)
	return h
}

// Observer returns an Observer that records every flow and step event into
// the history. Combine it with other observers via NewCompositeObserver.
func (h *History) Observer() Observer {
	return api.NewHistoryObserver(h.store, h.onErr)
}

// Record appends ev directly.
func (h *History) Record(ctx context.Context, ev Event) error {
	return h.store.AppendEvent(ctx, ev)
}

// Events returns the events recorded for runID in the order they happened.
func (h *History) Events(ctx context.Context, runID string) ([]Event, error) {
	return h.store.ListEvents(ctx, runID)
}

// Runs returns the IDs of every recorded run, sorted.
func (h *History) Runs(ctx context.Context) ([]string, error) {
	return h.store.ListRuns(ctx)
}
