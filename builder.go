package logicflow

import (
	"context"
	"fmt"

	"github.com/petrijr/logicflow/pkg/api"
)

// FlowBuilder provides a fluent API for composing flows:
//
//	count := 0
//	flow := logicflow.New("count").
//	    DoUntil(logicflow.Func(func() { count++ }),
//	        logicflow.Check(func() bool { return count == 15 })).
//	    OnComplete(logicflow.Func(func() { fmt.Println("done") }))
//
//	if err := flow.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Step-scoped methods (Until, When, ContinueWhen, OnStepComplete, Named)
// apply to the most recently added step.
//
// Misuse, such as a nil action or attaching a condition before any step
// exists, panics at the call site with a *BuilderError.
type FlowBuilder struct {
	flow *api.Flow
}

// BuilderError is the value FlowBuilder panics with on misuse. It wraps one
// of the api sentinel errors, so errors.Is works on a recovered value.
type BuilderError struct {
	Op  string
	Err error
}

func (e *BuilderError) Error() string {
	return fmt.Sprintf("logicflow: %s: %v", e.Op, e.Err)
}

func (e *BuilderError) Unwrap() error { return e.Err }

func must(op string, err error) {
	if err != nil {
		panic(&BuilderError{Op: op, Err: err})
	}
}

// New creates a new, empty flow builder with the given name.
func New(name string) *FlowBuilder {
	return &FlowBuilder{flow: api.NewFlow(name)}
}

// Name returns the flow name.
func (b *FlowBuilder) Name() string {
	return b.flow.Name()
}

// Flow returns the underlying flow.
// Typically used when interacting with lower-level APIs.
func (b *FlowBuilder) Flow() *Flow {
	return b.flow
}

// Do appends a step that runs a.
func (b *FlowBuilder) Do(a Action) *FlowBuilder {
	if a == nil {
		must("Do", api.ErrNilAction)
	}
	return b.add("Do", api.ActionBody(a))
}

// DoFlow appends a step that ticks the flow built by sub once per advance
// and finishes when that flow completes.
func (b *FlowBuilder) DoFlow(sub *FlowBuilder) *FlowBuilder {
	if sub == nil {
		must("DoFlow", api.ErrNilFlow)
	}
	return b.add("DoFlow", api.FlowBody(sub.flow))
}

// DoUntil appends a step that runs a on every tick until p holds.
func (b *FlowBuilder) DoUntil(a Action, p Predicate) *FlowBuilder {
	return b.Do(a).Until(p)
}

// DoFlowUntil appends a nested flow step that finishes when p holds.
func (b *FlowBuilder) DoFlowUntil(sub *FlowBuilder, p Predicate) *FlowBuilder {
	return b.DoFlow(sub).Until(p)
}

// DoWhen appends a step that runs a only when p holds.
func (b *FlowBuilder) DoWhen(a Action, p Predicate) *FlowBuilder {
	return b.Do(a).When(p)
}

// DoFlowWhen appends a nested flow step that is ticked only when p holds.
func (b *FlowBuilder) DoFlowWhen(sub *FlowBuilder, p Predicate) *FlowBuilder {
	return b.DoFlow(sub).When(p)
}

// Until adds an exit condition to the last step. With exit conditions the
// step keeps running on every tick until all of them hold.
func (b *FlowBuilder) Until(p Predicate) *FlowBuilder {
	must("Until", b.last("Until").AddExitWhen(p))
	return b
}

// When adds a run-if condition to the last step. The step body runs only on
// ticks where all run-if conditions hold.
func (b *FlowBuilder) When(p Predicate) *FlowBuilder {
	must("When", b.last("When").AddRunIf(p))
	return b
}

// ContinueWhen adds a continue condition to the last step. When all continue
// conditions hold, the step finishes for this pass without running.
func (b *FlowBuilder) ContinueWhen(p Predicate) *FlowBuilder {
	must("ContinueWhen", b.last("ContinueWhen").AddContinueWhen(p))
	return b
}

// OnStepComplete sets the hook called each time the last step finishes.
func (b *FlowBuilder) OnStepComplete(a Action) *FlowBuilder {
	s := b.last("OnStepComplete")
	if a == nil {
		must("OnStepComplete", api.ErrNilAction)
	}
	s.SetOnComplete(a)
	return b
}

// Named renames the last step. Step names show up in observer callbacks and
// history.
func (b *FlowBuilder) Named(name string) *FlowBuilder {
	b.last("Named").SetName(name)
	return b
}

// OnComplete sets the hook called once when the flow completes. It is not
// called when the flow is cancelled.
func (b *FlowBuilder) OnComplete(a Action) *FlowBuilder {
	if a == nil {
		must("OnComplete", api.ErrNilAction)
	}
	b.flow.SetOnComplete(a)
	return b
}

// CancelWhen sets the cancel condition, checked at the start of every tick.
func (b *FlowBuilder) CancelWhen(p Predicate) *FlowBuilder {
	must("CancelWhen", b.flow.SetCancelCondition(p))
	return b
}

// Loop makes the flow repeat forever. Pair it with CancelWhen.
func (b *FlowBuilder) Loop() *FlowBuilder {
	return b.LoopUntil(api.Never)
}

// LoopUntil repeats the flow until p holds after its last step.
func (b *FlowBuilder) LoopUntil(p Predicate) *FlowBuilder {
	must("LoopUntil", b.flow.SetLoopCondition(p))
	return b
}

// WithObserver sets the observer notified about this flow and every nested
// flow that has no observer of its own.
func (b *FlowBuilder) WithObserver(obs Observer) *FlowBuilder {
	b.flow.SetObserver(obs)
	return b
}

// Tick performs one unit of progress on the flow.
func (b *FlowBuilder) Tick(ctx context.Context) error {
	return b.flow.Tick(ctx)
}

// Run drives the flow to completion on the calling goroutine.
func (b *FlowBuilder) Run(ctx context.Context) error {
	return api.Run(ctx, b.flow)
}

// RunAsync drives the flow to completion on a new goroutine.
func (b *FlowBuilder) RunAsync(ctx context.Context) *Execution {
	return api.RunAsync(ctx, b.flow)
}

// Completed reports whether the flow has completed or was cancelled.
func (b *FlowBuilder) Completed() bool {
	return b.flow.Completed()
}

// Reset prepares a completed flow to run again from its first step.
func (b *FlowBuilder) Reset() *FlowBuilder {
	b.flow.Reset()
	return b
}

func (b *FlowBuilder) add(op string, body Body) *FlowBuilder {
	_, err := b.flow.AddStep("", body)
	must(op, err)
	return b
}

func (b *FlowBuilder) last(op string) *api.Step {
	s, err := b.flow.LastStep()
	must(op, err)
	return s
}
