package api

import "errors"

var (
	// ErrNoSteps is returned when a flow without steps is ticked or run.
	ErrNoSteps = errors.New("flow has no steps")

	// ErrNoCurrentStep is returned when a step-scoped setting (a condition or
	// a completion hook) is attached before any step was added.
	ErrNoCurrentStep = errors.New("no step has been added yet")

	// ErrNilAction is returned when a step is built from a nil Action.
	ErrNilAction = errors.New("action must not be nil")

	// ErrNilCondition is returned when a nil Predicate is attached.
	ErrNilCondition = errors.New("condition must not be nil")

	// ErrNilFlow is returned when a nil *Flow is used as a step body or run.
	ErrNilFlow = errors.New("flow must not be nil")

	// ErrFlowStarted is returned when steps are appended to a flow that has
	// already been ticked.
	ErrFlowStarted = errors.New("flow has already started")

	// ErrSelfNesting is returned when a flow would (directly or indirectly)
	// contain itself as a step body.
	ErrSelfNesting = errors.New("flow cannot contain itself")
)
