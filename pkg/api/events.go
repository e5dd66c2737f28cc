package api

import (
	"context"
	"time"
)

// EventType identifies a run history event.
type EventType string

const (
	EventFlowStarted   EventType = "flow.started"
	EventFlowCompleted EventType = "flow.completed"
	EventFlowCancelled EventType = "flow.cancelled"
	EventFlowFailed    EventType = "flow.failed"
	EventPassRestarted EventType = "flow.restarted"
	EventStepStarted   EventType = "step.started"
	EventStepFinished  EventType = "step.finished"
)

// Event is a minimal append-only history record for audit/debugging.
// It describes what a run did; it is not enough to restore a flow.
type Event struct {
	RunID string
	At    time.Time
	Type  EventType

	// Flow is the name of the flow that emitted the event (nested flows
	// report their own name).
	Flow string

	// Step and StepIndex identify the step for step events. StepIndex is
	// -1 for flow events.
	Step      string
	StepIndex int

	Pass int

	// Small, human-oriented details (e.g. an error string).
	Detail string
}

// EventRecorder appends history events.
type EventRecorder interface {
	AppendEvent(ctx context.Context, ev Event) error
}

// HistoryObserver is an Observer that appends every callback to an
// EventRecorder, keyed by the run ID found in the context.
type HistoryObserver struct {
	rec   EventRecorder
	onErr func(ctx context.Context, err error)
	now   func() time.Time
}

var _ Observer = (*HistoryObserver)(nil)

// NewHistoryObserver returns an observer writing to rec. Observer callbacks
// cannot fail, so append errors go to onErr; a nil onErr drops them.
func NewHistoryObserver(rec EventRecorder, onErr func(ctx context.Context, err error)) *HistoryObserver {
	return &HistoryObserver{
		rec:   rec,
		onErr: onErr,
		now:   time.Now,
	}
}

func (h *HistoryObserver) record(ctx context.Context, ev Event) {
	ev.RunID = RunIDFromContext(ctx)
	ev.At = h.now()
	if err := h.rec.AppendEvent(ctx, ev); err != nil && h.onErr != nil {
		h.onErr(ctx, err)
	}
}

func flowEvent(typ EventType, f *Flow) Event {
	return Event{Type: typ, Flow: f.Name(), StepIndex: -1, Pass: f.Pass()}
}

func (h *HistoryObserver) OnFlowStart(ctx context.Context, f *Flow) {
	h.record(ctx, flowEvent(EventFlowStarted, f))
}

func (h *HistoryObserver) OnFlowCompleted(ctx context.Context, f *Flow) {
	h.record(ctx, flowEvent(EventFlowCompleted, f))
}

func (h *HistoryObserver) OnFlowCancelled(ctx context.Context, f *Flow) {
	h.record(ctx, flowEvent(EventFlowCancelled, f))
}

func (h *HistoryObserver) OnFlowFailed(ctx context.Context, f *Flow, err error) {
	ev := flowEvent(EventFlowFailed, f)
	ev.StepIndex = f.Current()
	if err != nil {
		ev.Detail = err.Error()
	}
	h.record(ctx, ev)
}

func (h *HistoryObserver) OnPassRestarted(ctx context.Context, f *Flow, pass int) {
	ev := flowEvent(EventPassRestarted, f)
	ev.Pass = pass
	h.record(ctx, ev)
}

func (h *HistoryObserver) OnStepStart(ctx context.Context, f *Flow, s *Step, idx int) {
	h.record(ctx, Event{
		Type:      EventStepStarted,
		Flow:      f.Name(),
		Step:      s.Name(),
		StepIndex: idx,
		Pass:      f.Pass(),
	})
}

func (h *HistoryObserver) OnStepFinished(ctx context.Context, f *Flow, s *Step, idx int, d time.Duration) {
	h.record(ctx, Event{
		Type:      EventStepFinished,
		Flow:      f.Name(),
		Step:      s.Name(),
		StepIndex: idx,
		Pass:      f.Pass(),
		Detail:    d.String(),
	})
}
