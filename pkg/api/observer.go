package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the flow engine for logging and metrics.
//
// Callbacks run synchronously inside Tick, so implementations should be fast
// and non-blocking. The run identifier, when one is set, is available via
// RunIDFromContext(ctx).
type Observer interface {
	// OnFlowStart is called on the first tick of a run, and again on the
	// first tick after the flow was Reset or failed.
	OnFlowStart(ctx context.Context, f *Flow)

	// OnFlowCompleted is called once when the loop condition is satisfied.
	OnFlowCompleted(ctx context.Context, f *Flow)

	// OnFlowCancelled is called when the cancel condition ends the flow.
	OnFlowCancelled(ctx context.Context, f *Flow)

	// OnFlowFailed is called when an action, predicate or hook returns an
	// error during a tick.
	OnFlowFailed(ctx context.Context, f *Flow, err error)

	// OnPassRestarted is called when the loop condition sends the flow back
	// to its first step. pass is the number of the pass about to begin.
	OnPassRestarted(ctx context.Context, f *Flow, pass int)

	// OnStepStart is called on the first advance of a step in a pass.
	// stepIndex is the 0-based position of the step in the flow.
	OnStepStart(ctx context.Context, f *Flow, step *Step, stepIndex int)

	// OnStepFinished is called when a step finishes its visit. d spans
	// from the first advance of the visit to the finishing one.
	OnStepFinished(ctx context.Context, f *Flow, step *Step, stepIndex int, d time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnFlowStart(ctx context.Context, f *Flow)                   {}
func (NoopObserver) OnFlowCompleted(ctx context.Context, f *Flow)               {}
func (NoopObserver) OnFlowCancelled(ctx context.Context, f *Flow)               {}
func (NoopObserver) OnFlowFailed(ctx context.Context, f *Flow, err error)       {}
func (NoopObserver) OnPassRestarted(ctx context.Context, f *Flow, pass int)     {}
func (NoopObserver) OnStepStart(ctx context.Context, f *Flow, s *Step, idx int) {}
func (NoopObserver) OnStepFinished(ctx context.Context, f *Flow, s *Step, idx int, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnFlowStart(ctx context.Context, f *Flow) {
	for _, o := range c.observers {
		o.OnFlowStart(ctx, f)
	}
}

func (c *CompositeObserver) OnFlowCompleted(ctx context.Context, f *Flow) {
	for _, o := range c.observers {
		o.OnFlowCompleted(ctx, f)
	}
}

func (c *CompositeObserver) OnFlowCancelled(ctx context.Context, f *Flow) {
	for _, o := range c.observers {
		o.OnFlowCancelled(ctx, f)
	}
}

func (c *CompositeObserver) OnFlowFailed(ctx context.Context, f *Flow, err error) {
	for _, o := range c.observers {
		o.OnFlowFailed(ctx, f, err)
	}
}

func (c *CompositeObserver) OnPassRestarted(ctx context.Context, f *Flow, pass int) {
	for _, o := range c.observers {
		o.OnPassRestarted(ctx, f, pass)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, f *Flow, s *Step, idx int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, f, s, idx)
	}
}

func (c *CompositeObserver) OnStepFinished(ctx context.Context, f *Flow, s *Step, idx int, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepFinished(ctx, f, s, idx, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs flow and step lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnFlowStart(ctx context.Context, f *Flow) {
	o.Logger.InfoContext(ctx, "flow_start",
		slog.String("flow", f.Name()),
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.Int("steps", f.Len()),
	)
}

func (o *LoggingObserver) OnFlowCompleted(ctx context.Context, f *Flow) {
	o.Logger.InfoContext(ctx, "flow_completed",
		slog.String("flow", f.Name()),
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.Int("pass", f.Pass()),
	)
}

func (o *LoggingObserver) OnFlowCancelled(ctx context.Context, f *Flow) {
	o.Logger.InfoContext(ctx, "flow_cancelled",
		slog.String("flow", f.Name()),
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.Int("pass", f.Pass()),
	)
}

func (o *LoggingObserver) OnFlowFailed(ctx context.Context, f *Flow, err error) {
	o.Logger.ErrorContext(ctx, "flow_failed",
		slog.String("flow", f.Name()),
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.Int("step_index", f.Current()),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPassRestarted(ctx context.Context, f *Flow, pass int) {
	o.Logger.DebugContext(ctx, "pass_restarted",
		slog.String("flow", f.Name()),
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.Int("pass", pass),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, f *Flow, s *Step, idx int) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("flow", f.Name()),
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.String("step", s.Name()),
		slog.Int("step_index", idx),
	)
}

func (o *LoggingObserver) OnStepFinished(ctx context.Context, f *Flow, s *Step, idx int, d time.Duration) {
	o.Logger.DebugContext(ctx, "step_finished",
		slog.String("flow", f.Name()),
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.String("step", s.Name()),
		slog.Int("step_index", idx),
		slog.Duration("duration", d),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver. Nested flows are counted like top-level ones.
type BasicMetrics struct {
	NoopObserver

	flowsStarted      atomic.Int64
	flowsCompleted    atomic.Int64
	flowsCancelled    atomic.Int64
	flowsFailed       atomic.Int64
	passesRestarted   atomic.Int64
	stepsFinished     atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	FlowsStarted   int64
	FlowsCompleted int64
	FlowsCancelled int64
	FlowsFailed    int64
	ActiveFlows    int64

	PassesRestarted int64
	StepsFinished   int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnFlowStart(ctx context.Context, f *Flow) {
	m.flowsStarted.Add(1)
}

func (m *BasicMetrics) OnFlowCompleted(ctx context.Context, f *Flow) {
	m.flowsCompleted.Add(1)
}

func (m *BasicMetrics) OnFlowCancelled(ctx context.Context, f *Flow) {
	m.flowsCancelled.Add(1)
}

func (m *BasicMetrics) OnFlowFailed(ctx context.Context, f *Flow, err error) {
	m.flowsFailed.Add(1)
}

func (m *BasicMetrics) OnPassRestarted(ctx context.Context, f *Flow, pass int) {
	m.passesRestarted.Add(1)
}

func (m *BasicMetrics) OnStepFinished(ctx context.Context, f *Flow, s *Step, idx int, d time.Duration) {
	m.stepsFinished.Add(1)
	m.totalStepDuration.Add(d.Nanoseconds())
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.flowsStarted.Load()
	completed := m.flowsCompleted.Load()
	cancelled := m.flowsCancelled.Load()
	failed := m.flowsFailed.Load()
	steps := m.stepsFinished.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		FlowsStarted:    started,
		FlowsCompleted:  completed,
		FlowsCancelled:  cancelled,
		FlowsFailed:     failed,
		ActiveFlows:     started - completed - cancelled - failed,
		PassesRestarted: m.passesRestarted.Load(),
		StepsFinished:   steps,
		AvgStepDuration: avg,
	}
}
