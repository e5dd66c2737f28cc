package api

import "context"

// Predicate is a re-evaluated boolean check. It may have side effects; the
// engine only guarantees the order in which predicates are called.
type Predicate func(ctx context.Context) (bool, error)

// Check adapts a plain func() bool into a Predicate that never fails.
func Check(fn func() bool) Predicate {
	if fn == nil {
		return nil
	}
	return func(context.Context) (bool, error) {
		return fn(), nil
	}
}

// Always is a Predicate that is always satisfied.
func Always(context.Context) (bool, error) { return true, nil }

// Never is a Predicate that is never satisfied.
func Never(context.Context) (bool, error) { return false, nil }

// Condition wraps a Predicate. It stores no result: every call to
// IsSatisfied evaluates the predicate again.
type Condition struct {
	pred Predicate
}

// NewCondition wraps pred. It returns ErrNilCondition for a nil predicate.
func NewCondition(pred Predicate) (Condition, error) {
	if pred == nil {
		return Condition{}, ErrNilCondition
	}
	return Condition{pred: pred}, nil
}

// IsSatisfied evaluates the wrapped predicate.
func (c Condition) IsSatisfied(ctx context.Context) (bool, error) {
	return c.pred(ctx)
}

// allSatisfied reports whether every condition holds, stopping at the first
// one that does not (or that fails). An empty list is satisfied.
func allSatisfied(ctx context.Context, conds []Condition) (bool, error) {
	for _, c := range conds {
		ok, err := c.IsSatisfied(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
