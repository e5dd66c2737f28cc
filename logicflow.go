package logicflow

import (
	"context"

	"github.com/petrijr/logicflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Flow                 = api.Flow
	Step                 = api.Step
	Body                 = api.Body
	BodyKind             = api.BodyKind
	Action               = api.Action
	Predicate            = api.Predicate
	Condition            = api.Condition
	Execution            = api.Execution
	Event                = api.Event
	EventType            = api.EventType
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
	HistoryObserver      = api.HistoryObserver
)

// Re-export common helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	WithRunID            = api.WithRunID
	RunIDFromContext     = api.RunIDFromContext
)

// Re-export sentinel errors.

var (
	ErrNoSteps       = api.ErrNoSteps
	ErrNoCurrentStep = api.ErrNoCurrentStep
	ErrNilAction     = api.ErrNilAction
	ErrNilCondition  = api.ErrNilCondition
	ErrNilFlow       = api.ErrNilFlow
	ErrFlowStarted   = api.ErrFlowStarted
	ErrSelfNesting   = api.ErrSelfNesting
)

// Re-export body kinds and history event types.

const (
	BodyAction = api.BodyAction
	BodyFlow   = api.BodyFlow

	EventFlowStarted   = api.EventFlowStarted
	EventFlowCompleted = api.EventFlowCompleted
	EventFlowCancelled = api.EventFlowCancelled
	EventFlowFailed    = api.EventFlowFailed
	EventPassRestarted = api.EventPassRestarted
	EventStepStarted   = api.EventStepStarted
	EventStepFinished  = api.EventStepFinished
)

// Func adapts a plain func() into an Action that never fails.
func Func(fn func()) Action {
	return api.Func(fn)
}

// Check adapts a plain func() bool into a Predicate that never fails.
func Check(fn func() bool) Predicate {
	return api.Check(fn)
}

// Always is a Predicate that is always satisfied.
func Always(ctx context.Context) (bool, error) { return api.Always(ctx) }

// Never is a Predicate that is never satisfied.
func Never(ctx context.Context) (bool, error) { return api.Never(ctx) }

// Convenience helpers that just forward to pkg/api.

// Run ticks f until it completes or ctx is cancelled.
func Run(ctx context.Context, f *Flow) error {
	return api.Run(ctx, f)
}

// RunAsync runs f on a new goroutine and returns a handle to wait on.
func RunAsync(ctx context.Context, f *Flow) *Execution {
	return api.RunAsync(ctx, f)
}
