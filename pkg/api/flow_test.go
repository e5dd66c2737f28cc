package api

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlow_IndependentStepsRunOncePerPassInOrder(t *testing.T) {
	t.Parallel()

	var order []int
	f := NewFlow("sequence")
	for i := 0; i < 4; i++ {
		mustStep(t, f, ActionBody(Func(func() { order = append(order, i) })))
	}

	tickN(t, f, 1)
	require.Equal(t, 1, f.Current(), "cursor should move after the first step finished")
	require.False(t, f.Completed())

	require.NoError(t, Run(context.Background(), f))
	require.Equal(t, []int{0, 1, 2, 3}, order)
	require.True(t, f.Completed())
}

func TestFlow_DoUntilCountsToFifteen(t *testing.T) {
	t.Parallel()

	n := 0
	f := NewFlow("count")
	s := mustStep(t, f, ActionBody(Func(func() { n++ })))
	require.NoError(t, s.AddExitWhen(Check(func() bool { return n == 15 })))

	require.NoError(t, Run(context.Background(), f))
	require.Equal(t, 15, n)
}

func TestFlow_SingleStepRepeatsUntilExitCondition(t *testing.T) {
	t.Parallel()

	n := 0
	f := NewFlow("repeat")
	s := mustStep(t, f, ActionBody(Func(func() { n++ })))
	require.NoError(t, s.AddExitWhen(Check(func() bool { return n >= 5 })))

	for i := 1; i <= 4; i++ {
		tickN(t, f, 1)
		require.Equal(t, i, n)
		require.False(t, f.Completed(), "tick %d", i)
		require.Equal(t, 0, f.Current())
	}
	tickN(t, f, 1)
	require.True(t, f.Completed())
}

func TestFlow_NestedFlowResetsEachOuterPass(t *testing.T) {
	t.Parallel()

	number, count, innerStarts := 0, 0, 0

	inner := NewFlow("inner")
	s := mustStep(t, inner, ActionBody(Func(func() {
		if number == 0 {
			innerStarts++
		}
		number++
	})))
	require.NoError(t, s.AddExitWhen(Check(func() bool { return number == 100 })))

	outer := NewFlow("outer")
	mustStep(t, outer, ActionBody(Func(func() { number = 0 })))
	mustStep(t, outer, FlowBody(inner))
	mustStep(t, outer, ActionBody(Func(func() { count++ })))
	require.NoError(t, outer.SetLoopCondition(Check(func() bool { return count == 5 })))

	require.NoError(t, Run(context.Background(), outer))
	require.Equal(t, 100, number)
	require.Equal(t, 5, count)
	require.Equal(t, 5, innerStarts, "inner flow should restart from its first step on every outer pass")
	require.True(t, inner.Completed())
}

func TestFlow_CancelStopsInfiniteLoop(t *testing.T) {
	t.Parallel()

	n := 0
	completions := 0
	f := NewFlow("cancel")
	mustStep(t, f, ActionBody(Func(func() {
		n++
		if n > 150 {
			t.Fatalf("counter exceeded the cancel threshold: %d", n)
		}
	})))
	require.NoError(t, f.SetLoopCondition(Never))
	require.NoError(t, f.SetCancelCondition(Check(func() bool { return n == 150 })))
	f.SetOnComplete(Func(func() { completions++ }))

	require.NoError(t, Run(context.Background(), f))
	require.Equal(t, 150, n)
	require.True(t, f.Completed())
	require.Equal(t, 0, completions, "completion hook must not fire on cancellation")
}

func TestFlow_CancelBeforeFirstTickRunsNothing(t *testing.T) {
	t.Parallel()

	calls := 0
	f := NewFlow("cancelled-early")
	mustStep(t, f, ActionBody(Func(func() { calls++ })))
	mustStep(t, f, ActionBody(Func(func() { calls++ })))
	require.NoError(t, f.SetCancelCondition(Always))

	require.NoError(t, f.Tick(context.Background()))
	require.True(t, f.Completed())
	require.Equal(t, 0, calls)
}

func TestFlow_CancelMidPassResetsSteps(t *testing.T) {
	t.Parallel()

	cancel := false
	f := NewFlow("cancel-mid")
	first := mustStep(t, f, ActionBody(Func(func() {})))
	mustStep(t, f, ActionBody(Func(func() { cancel = true })))
	last := mustStep(t, f, ActionBody(Func(func() { t.Fatalf("last step must not run") })))
	require.NoError(t, f.SetCancelCondition(Check(func() bool { return cancel })))

	require.NoError(t, Run(context.Background(), f))
	require.True(t, f.Completed())
	require.Equal(t, 0, f.Current())
	require.False(t, first.Finished())
	require.False(t, last.Finished())
}

func TestFlow_OnCompleteFiresOnce(t *testing.T) {
	t.Parallel()

	passes, completions := 0, 0
	f := NewFlow("complete")
	mustStep(t, f, ActionBody(Func(func() { passes++ })))
	require.NoError(t, f.SetLoopCondition(Check(func() bool { return passes == 3 })))
	f.SetOnComplete(Func(func() { completions++ }))

	require.NoError(t, Run(context.Background(), f))
	tickN(t, f, 3)

	require.Equal(t, 3, passes)
	require.Equal(t, 1, completions)
	require.Equal(t, 3, f.Pass())
}

func TestFlow_WhenAndUntilCombinations(t *testing.T) {
	t.Parallel()

	t.Run("when satisfied", func(t *testing.T) {
		n := 0
		f := NewFlow("when-true")
		s := mustStep(t, f, ActionBody(Func(func() { n += 10 })))
		require.NoError(t, s.AddExitWhen(Check(func() bool { return n >= 100 })))
		s = mustStep(t, f, ActionBody(Func(func() { n = -1 })))
		require.NoError(t, s.AddRunIf(Check(func() bool { return n >= 100 })))

		require.NoError(t, Run(context.Background(), f))
		require.Equal(t, -1, n)
	})

	t.Run("when not satisfied", func(t *testing.T) {
		n := 0
		f := NewFlow("when-false")
		s := mustStep(t, f, ActionBody(Func(func() { n += 10 })))
		require.NoError(t, s.AddExitWhen(Check(func() bool { return n >= 200 })))
		s = mustStep(t, f, ActionBody(Func(func() { n = -1 })))
		require.NoError(t, s.AddRunIf(Check(func() bool { return n <= 100 })))

		require.NoError(t, Run(context.Background(), f))
		require.GreaterOrEqual(t, n, 200)
	})

	t.Run("up and down", func(t *testing.T) {
		n := -1
		f := NewFlow("up-down")
		s := mustStep(t, f, ActionBody(Func(func() { n++ })))
		require.NoError(t, s.AddExitWhen(Check(func() bool { return n >= 100 })))
		s = mustStep(t, f, ActionBody(Func(func() { n-- })))
		require.NoError(t, s.AddExitWhen(Check(func() bool { return n == 0 })))
		s = mustStep(t, f, ActionBody(Func(func() { n += 10 })))
		require.NoError(t, s.AddExitWhen(Check(func() bool { return n == 200 })))

		require.NoError(t, Run(context.Background(), f))
		require.Equal(t, 200, n)
	})
}

func TestFlow_ResetReproducesSideEffects(t *testing.T) {
	t.Parallel()

	var log []string
	i := 0
	f := NewFlow("replay")
	mustStep(t, f, ActionBody(Func(func() {
		i = 0
		log = append(log, "start")
	})))
	s := mustStep(t, f, ActionBody(Func(func() {
		i++
		log = append(log, "tick")
	})))
	require.NoError(t, s.AddExitWhen(Check(func() bool { return i == 3 })))
	f.SetOnComplete(Func(func() { log = append(log, "done") }))

	require.NoError(t, Run(context.Background(), f))
	first := slices.Clone(log)

	f.Reset()
	require.False(t, f.Completed())
	require.Equal(t, 0, f.Current())

	log = nil
	require.NoError(t, Run(context.Background(), f))
	require.Equal(t, first, log)
	require.Equal(t, []string{"start", "tick", "tick", "tick", "done"}, log)
}

func TestFlow_BubbleSortMatchesNestedLoops(t *testing.T) {
	t.Parallel()

	inputs := map[string][]int{
		"reversed": descending(100),
		"mixed":    {9, 2, 3, 4, 7, 1, 8, 5},
		"sorted":   {1, 2, 3, 4, 5},
		"pair":     {2, 1},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			arr := slices.Clone(input)
			switched := false
			index := 0

			f := NewFlow("bubble-sort")
			mustStep(t, f, ActionBody(Func(func() { switched = false })))
			swap := mustStep(t, f, ActionBody(Func(func() {
				arr[index], arr[index+1] = arr[index+1], arr[index]
				switched = true
			})))
			require.NoError(t, swap.AddRunIf(Check(func() bool { return arr[index] > arr[index+1] })))
			require.NoError(t, swap.AddExitWhen(Check(func() bool {
				index++
				return index >= len(arr)-1
			})))
			rewind := mustStep(t, f, ActionBody(Func(func() { index = 0 })))
			require.NoError(t, rewind.AddRunIf(Check(func() bool { return index+1 >= len(arr) })))
			require.NoError(t, f.SetLoopCondition(Check(func() bool { return !switched })))

			require.NoError(t, Run(context.Background(), f))

			want := slices.Clone(input)
			nestedLoopBubbleSort(want)
			require.Equal(t, want, arr)
			require.True(t, slices.IsSorted(arr))
		})
	}
}

func descending(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}
	return out
}

func nestedLoopBubbleSort(arr []int) {
	for {
		switched := false
		for i := 0; i < len(arr)-1; i++ {
			if arr[i] > arr[i+1] {
				arr[i], arr[i+1] = arr[i+1], arr[i]
				switched = true
			}
		}
		if !switched {
			return
		}
	}
}

func TestFlow_ErrorsPropagateAndStateSurvives(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("third call fails")
	calls := 0
	f := NewFlow("flaky")
	mustStep(t, f, ActionBody(Func(func() {})))
	s := mustStep(t, f, ActionBody(func(context.Context) error {
		calls++
		if calls == 3 {
			return wantErr
		}
		return nil
	}))
	require.NoError(t, s.AddExitWhen(Check(func() bool { return calls == 5 })))

	err := Run(context.Background(), f)
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 3, calls)
	require.Equal(t, 1, f.Current())
	require.False(t, s.Finished())
	require.False(t, f.Completed())

	// The caller decides to carry on from where the flow stopped.
	require.NoError(t, Run(context.Background(), f))
	require.Equal(t, 5, calls)
	require.True(t, f.Completed())
}

func TestFlow_PredicateErrorsPropagate(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("cancel check failed")
	f := NewFlow("bad-cancel")
	mustStep(t, f, ActionBody(Func(func() { t.Fatalf("step must not run") })))
	require.NoError(t, f.SetCancelCondition(func(context.Context) (bool, error) { return false, wantErr }))

	require.ErrorIs(t, f.Tick(context.Background()), wantErr)
	require.False(t, f.Completed())
}

func TestFlow_ZeroStepsFailsFast(t *testing.T) {
	t.Parallel()

	f := NewFlow("empty")
	require.ErrorIs(t, f.Tick(context.Background()), ErrNoSteps)
	require.ErrorIs(t, Run(context.Background(), f), ErrNoSteps)
	require.False(t, f.Completed())
}

func TestFlow_ConstructionErrors(t *testing.T) {
	t.Parallel()

	f := NewFlow("construct")
	_, err := f.LastStep()
	require.ErrorIs(t, err, ErrNoCurrentStep)

	_, err = f.AddStep("", ActionBody(nil))
	require.ErrorIs(t, err, ErrNilAction)

	_, err = f.AddStep("", FlowBody(f))
	require.ErrorIs(t, err, ErrSelfNesting)

	require.ErrorIs(t, f.SetLoopCondition(nil), ErrNilCondition)
	require.ErrorIs(t, f.SetCancelCondition(nil), ErrNilCondition)

	s := mustStep(t, f, ActionBody(Func(func() {})))
	require.Equal(t, "step-0", s.Name())
	require.ErrorIs(t, s.AddExitWhen(nil), ErrNilCondition)

	named, err := f.AddStep("second", ActionBody(Func(func() {})))
	require.NoError(t, err)
	require.Equal(t, "second", named.Name())

	last, err := f.LastStep()
	require.NoError(t, err)
	require.Same(t, named, last)

	tickN(t, f, 1)
	_, err = f.AddStep("", ActionBody(Func(func() {})))
	require.ErrorIs(t, err, ErrFlowStarted)
}

func TestFlow_IndirectSelfNestingRejected(t *testing.T) {
	t.Parallel()

	a := NewFlow("a")
	b := NewFlow("b")
	mustStep(t, b, FlowBody(a))

	_, err := a.AddStep("", FlowBody(b))
	require.ErrorIs(t, err, ErrSelfNesting)
}

func TestFlow_DefaultName(t *testing.T) {
	require.Equal(t, "flow", NewFlow("").Name())
}

func TestFlow_CancelKeepsPassUntilReset(t *testing.T) {
	stop := false
	f := NewFlow("pass-on-cancel")
	mustStep(t, f, ActionBody(Func(func() {})))
	if err := f.SetLoopCondition(Never); err != nil {
		t.Fatalf("SetLoopCondition failed: %v", err)
	}
	if err := f.SetCancelCondition(Check(func() bool { return stop })); err != nil {
		t.Fatalf("SetCancelCondition failed: %v", err)
	}

	// Each tick finishes a pass of the single step.
	tickN(t, f, 2)
	stop = true
	tickN(t, f, 1)

	if !f.Completed() {
		t.Fatalf("expected flow to be cancelled")
	}
	if f.Pass() != 3 {
		t.Fatalf("expected cancelled flow to keep pass 3, got %d", f.Pass())
	}

	f.Reset()
	if f.Pass() != 1 {
		t.Fatalf("expected Reset to restore pass 1, got %d", f.Pass())
	}
}
