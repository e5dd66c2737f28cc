package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/logicflow/pkg/api"
)

// ErrEmptyRunID is returned when an event without a run ID is appended.
var ErrEmptyRunID = errors.New("event has no run id")

// EventStore is an append-only history store for flow run events.
// Events of one run are returned in append order.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.Event) error
	ListEvents(ctx context.Context, runID string) ([]api.Event, error)

	// ListRuns returns the IDs of runs with recorded events, sorted.
	ListRuns(ctx context.Context) ([]string, error)
}

var _ api.EventRecorder = EventStore(nil)
