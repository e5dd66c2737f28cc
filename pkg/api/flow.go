package api

import (
	"context"
	"fmt"
)

// Flow is an ordered sequence of steps advanced one tick at a time.
//
// A flow starts at its first step. Each Tick first evaluates the cancel
// condition, then advances the current step, and moves the cursor forward
// once that step has finished. When the last step finishes the loop
// condition decides between completing the flow and starting another pass
// from the first step with every step reset.
//
// A Flow is not safe for concurrent use. Nested flows are ticked by their
// parent step on the parent's goroutine.
type Flow struct {
	name  string
	steps []*Step

	cursor int
	pass   int

	loopWhen   Condition
	cancelWhen Condition
	onComplete Action
	observer   Observer

	// active is the observer the current run reports to.
	active Observer

	started   bool
	running   bool
	completed bool
}

// NewFlow returns an empty flow. It completes after a single pass and is
// never cancelled until configured otherwise.
func NewFlow(name string) *Flow {
	if name == "" {
		name = "flow"
	}
	return &Flow{
		name:       name,
		pass:       1,
		loopWhen:   Condition{pred: Always},
		cancelWhen: Condition{pred: Never},
	}
}

// Name returns the flow name.
func (f *Flow) Name() string { return f.name }

// Len returns the number of steps.
func (f *Flow) Len() int { return len(f.steps) }

// Steps returns a copy of the step list.
func (f *Flow) Steps() []*Step {
	out := make([]*Step, len(f.steps))
	copy(out, f.steps)
	return out
}

// Current returns the index of the step under execution.
func (f *Flow) Current() int { return f.cursor }

// Pass returns the 1-based number of the pass in progress. A cancelled
// flow keeps the number of the pass it was cancelled in until Reset.
func (f *Flow) Pass() int { return f.pass }

// Completed reports whether the flow has completed (or was cancelled).
func (f *Flow) Completed() bool { return f.completed }

// Started reports whether the flow has been ticked at least once. Steps
// can no longer be added to a started flow.
func (f *Flow) Started() bool { return f.started }

// AddStep appends a step. Steps cannot be added once the flow has been
// ticked. An empty name is replaced by "step-<index>".
func (f *Flow) AddStep(name string, body Body) (*Step, error) {
	if f.started {
		return nil, ErrFlowStarted
	}
	if body.kind == BodyFlow && body.flow != nil {
		if body.flow == f || body.flow.contains(f) {
			return nil, fmt.Errorf("flow %q: %w", f.name, ErrSelfNesting)
		}
	}
	if name == "" {
		name = fmt.Sprintf("step-%d", len(f.steps))
	}
	s, err := NewStep(name, body)
	if err != nil {
		return nil, fmt.Errorf("flow %q: %w", f.name, err)
	}
	f.steps = append(f.steps, s)
	return s, nil
}

// LastStep returns the most recently added step.
func (f *Flow) LastStep() (*Step, error) {
	if len(f.steps) == 0 {
		return nil, ErrNoCurrentStep
	}
	return f.steps[len(f.steps)-1], nil
}

// SetLoopCondition sets the condition evaluated after the last step
// finishes. The flow completes when it holds and starts another pass when
// it does not.
func (f *Flow) SetLoopCondition(pred Predicate) error {
	c, err := NewCondition(pred)
	if err != nil {
		return err
	}
	f.loopWhen = c
	return nil
}

// SetCancelCondition sets the condition evaluated at the start of every
// tick. When it holds the flow is reset and marked completed without
// calling the completion hook.
func (f *Flow) SetCancelCondition(pred Predicate) error {
	c, err := NewCondition(pred)
	if err != nil {
		return err
	}
	f.cancelWhen = c
	return nil
}

// SetOnComplete sets the hook called once when the loop condition is
// satisfied. A nil action clears it.
func (f *Flow) SetOnComplete(a Action) {
	f.onComplete = a
}

// SetObserver sets the observer for this flow. Nested flows without their
// own observer report to the observer of the flow that ticks them.
func (f *Flow) SetObserver(obs Observer) {
	f.observer = obs
}

// Observer returns the observer set with SetObserver, or nil.
func (f *Flow) Observer() Observer { return f.observer }

// Tick performs one unit of progress. It is a no-op on a completed flow.
func (f *Flow) Tick(ctx context.Context) error {
	return f.tick(ctx, nil)
}

// Reset clears the completed flag, rewinds to the first step, and resets
// every step, including nested flows. The next Tick starts a fresh pass.
// A flow reset in the middle of a run reports OnFlowCancelled.
func (f *Flow) Reset() {
	f.reset(context.Background())
}

func (f *Flow) tick(ctx context.Context, inherited Observer) error {
	if f.completed {
		return nil
	}
	if len(f.steps) == 0 {
		return fmt.Errorf("flow %q: %w", f.name, ErrNoSteps)
	}

	obs := f.observerFor(inherited)
	f.started = true
	if !f.running {
		f.running = true
		f.active = obs
		obs.OnFlowStart(ctx, f)
	}

	if err := f.advance(ctx, obs); err != nil {
		f.running = false
		obs.OnFlowFailed(ctx, f, err)
		return err
	}
	return nil
}

func (f *Flow) advance(ctx context.Context, obs Observer) error {
	cancel, err := f.cancelWhen.IsSatisfied(ctx)
	if err != nil {
		return err
	}
	if cancel {
		f.rewind(ctx)
		f.completed = true
		f.abandon(ctx)
		return nil
	}

	cur := f.steps[f.cursor]
	if !cur.finished {
		if err := cur.advance(ctx, f, f.cursor, obs); err != nil {
			return err
		}
		if !cur.finished {
			return nil
		}
	}

	if f.cursor < len(f.steps)-1 {
		f.cursor++
		return nil
	}

	done, err := f.loopWhen.IsSatisfied(ctx)
	if err != nil {
		return err
	}
	if !done {
		f.rewind(ctx)
		f.pass++
		obs.OnPassRestarted(ctx, f, f.pass)
		return nil
	}

	if f.onComplete != nil {
		if err := f.onComplete(ctx); err != nil {
			return err
		}
	}
	f.completed = true
	f.running = false
	obs.OnFlowCompleted(ctx, f)
	return nil
}

// rewind moves the cursor to the first step and resets every step.
func (f *Flow) rewind(ctx context.Context) {
	f.cursor = 0
	for _, s := range f.steps {
		s.reset(ctx)
	}
}

func (f *Flow) reset(ctx context.Context) {
	f.rewind(ctx)
	f.abandon(ctx)
	f.pass = 1
	f.completed = false
}

// abandon ends a run that will not be ticked again, reporting it as
// cancelled to the observer it started under. It is a no-op when the flow
// is not running.
func (f *Flow) abandon(ctx context.Context) {
	if !f.running {
		return
	}
	obs := f.active
	f.running = false
	f.active = nil
	if obs != nil {
		obs.OnFlowCancelled(ctx, f)
	}
}

func (f *Flow) contains(target *Flow) bool {
	for _, s := range f.steps {
		if s.body.kind != BodyFlow {
			continue
		}
		if s.body.flow == target || s.body.flow.contains(target) {
			return true
		}
	}
	return false
}

func (f *Flow) observerFor(inherited Observer) Observer {
	if f.observer != nil {
		return f.observer
	}
	if inherited != nil {
		return inherited
	}
	return NoopObserver{}
}
