package api

import (
	"context"
	"fmt"
	"time"
)

// Action is the user work performed by a step.
type Action func(ctx context.Context) error

// Func adapts a plain func() into an Action that never fails.
func Func(fn func()) Action {
	if fn == nil {
		return nil
	}
	return func(context.Context) error {
		fn()
		return nil
	}
}

// BodyKind tells which variant a Body holds.
type BodyKind int

const (
	BodyAction BodyKind = iota + 1
	BodyFlow
)

func (k BodyKind) String() string {
	switch k {
	case BodyAction:
		return "action"
	case BodyFlow:
		return "flow"
	default:
		return fmt.Sprintf("BodyKind(%d)", int(k))
	}
}

// Body is what a step executes: either an Action or a nested Flow.
// The zero Body is invalid; use ActionBody or FlowBody.
type Body struct {
	kind   BodyKind
	action Action
	flow   *Flow
}

// ActionBody returns a Body that calls a.
func ActionBody(a Action) Body {
	return Body{kind: BodyAction, action: a}
}

// FlowBody returns a Body that ticks f once per step advance.
func FlowBody(f *Flow) Body {
	return Body{kind: BodyFlow, flow: f}
}

// Kind returns the variant held by b.
func (b Body) Kind() BodyKind { return b.kind }

// Flow returns the nested flow, or nil for action bodies.
func (b Body) Flow() *Flow { return b.flow }

func (b Body) validate() error {
	switch b.kind {
	case BodyAction:
		if b.action == nil {
			return ErrNilAction
		}
	case BodyFlow:
		if b.flow == nil {
			return ErrNilFlow
		}
	default:
		return fmt.Errorf("invalid step body kind %v", b.kind)
	}
	return nil
}

// Step is one unit of work inside a Flow together with the conditions that
// gate it.
//
// Per visit (one pass of the owning flow) a step is either pending or
// finished. The owning flow advances a pending step once per tick:
//
//  1. If continue conditions exist and all hold, the step finishes without
//     running its body.
//  2. Otherwise, if all run-if conditions hold, the body runs once (an
//     action is called, a nested flow is ticked once).
//  3. With exit conditions the step finishes when all of them hold. Without
//     them it finishes right away, except that a nested flow body finishes
//     only when the nested flow has completed.
type Step struct {
	name string
	body Body

	runIf        []Condition
	continueWhen []Condition
	exitWhen     []Condition

	onComplete Action

	finished   bool
	visiting   bool
	visitStart time.Time
}

// NewStep returns a pending step with the given body.
func NewStep(name string, body Body) (*Step, error) {
	if err := body.validate(); err != nil {
		return nil, err
	}
	return &Step{name: name, body: body}, nil
}

// Name returns the step name used in observer callbacks.
func (s *Step) Name() string { return s.name }

// SetName renames the step. An empty name is ignored.
func (s *Step) SetName(name string) {
	if name != "" {
		s.name = name
	}
}

// Body returns the step body.
func (s *Step) Body() Body { return s.body }

// Finished reports whether the step has finished for the current visit.
func (s *Step) Finished() bool { return s.finished }

// AddRunIf attaches an eligibility condition.
func (s *Step) AddRunIf(pred Predicate) error {
	return appendCondition(&s.runIf, pred)
}

// AddContinueWhen attaches a continue condition. When all continue
// conditions hold, the step finishes for this visit without running.
func (s *Step) AddContinueWhen(pred Predicate) error {
	return appendCondition(&s.continueWhen, pred)
}

// AddExitWhen attaches an exit condition.
func (s *Step) AddExitWhen(pred Predicate) error {
	return appendCondition(&s.exitWhen, pred)
}

// SetOnComplete sets the hook called once each time the step finishes a
// visit. A nil action clears it.
func (s *Step) SetOnComplete(a Action) {
	s.onComplete = a
}

func appendCondition(list *[]Condition, pred Predicate) error {
	c, err := NewCondition(pred)
	if err != nil {
		return err
	}
	*list = append(*list, c)
	return nil
}

// advance performs one tick of work for a pending step. Errors are returned
// as-is and leave the step in the state it had when the failing call was
// made.
func (s *Step) advance(ctx context.Context, owner *Flow, idx int, obs Observer) error {
	if !s.visiting {
		s.visiting = true
		s.visitStart = time.Now()
		obs.OnStepStart(ctx, owner, s, idx)
	}

	continued := false
	if len(s.continueWhen) > 0 {
		ok, err := allSatisfied(ctx, s.continueWhen)
		if err != nil {
			return err
		}
		continued = ok
	}

	if !continued {
		eligible, err := allSatisfied(ctx, s.runIf)
		if err != nil {
			return err
		}
		if eligible {
			if err := s.run(ctx, obs); err != nil {
				return err
			}
		}
	}

	done, err := s.done(ctx, continued)
	if err != nil || !done {
		return err
	}

	s.finished = true
	if s.body.kind == BodyFlow {
		// An exit or continue condition may end the visit mid-run.
		s.body.flow.abandon(ctx)
	}
	if s.onComplete != nil {
		if err := s.onComplete(ctx); err != nil {
			return err
		}
	}
	obs.OnStepFinished(ctx, owner, s, idx, time.Since(s.visitStart))
	return nil
}

func (s *Step) run(ctx context.Context, obs Observer) error {
	switch s.body.kind {
	case BodyAction:
		return s.body.action(ctx)
	case BodyFlow:
		if s.body.flow.Completed() {
			return nil
		}
		return s.body.flow.tick(ctx, obs)
	default:
		return fmt.Errorf("invalid step body kind %v", s.body.kind)
	}
}

func (s *Step) done(ctx context.Context, continued bool) (bool, error) {
	if len(s.exitWhen) > 0 {
		return allSatisfied(ctx, s.exitWhen)
	}
	if continued {
		return true, nil
	}
	if s.body.kind == BodyFlow {
		return s.body.flow.Completed(), nil
	}
	return true, nil
}

// reset returns the step to pending. A nested flow body is reset with it so
// the next visit runs the nested flow from its first step.
func (s *Step) reset(ctx context.Context) {
	s.finished = false
	s.visiting = false
	if s.body.kind == BodyFlow {
		s.body.flow.reset(ctx)
	}
}
