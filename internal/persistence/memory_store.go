package persistence

import (
	"context"
	"slices"
	"sync"

	"github.com/petrijr/logicflow/pkg/api"
)

// InMemoryEventStore is a goroutine-safe EventStore backed by a map of run
// ID to event slice.
type InMemoryEventStore struct {
	mu   sync.RWMutex
	runs map[string][]api.Event
}

// NewInMemoryEventStore creates a new InMemoryEventStore.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		runs: make(map[string][]api.Event),
	}
}

// Ensure InMemoryEventStore implements EventStore.
var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.Event) error {
	if ev.RunID == "" {
		return ErrEmptyRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[ev.RunID] = append(s.runs[ev.RunID], ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, runID string) ([]api.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.runs[runID]
	out := make([]api.Event, len(evs))
	copy(out, evs)
	return out, nil
}

func (s *InMemoryEventStore) ListRuns(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.runs))
	for id := range s.runs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}
