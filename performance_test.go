package logicflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTickOverheadUnder1ms checks that the per-tick cost of the engine
// (excluding user logic) stays well below a millisecond.
//
// A flow with many sequential no-op steps amortizes timer granularity.
func TestTickOverheadUnder1ms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	noop := Func(func() {})

	const N = 1000

	flow := New("perf-tick-overhead")
	for i := 0; i < N; i++ {
		flow = flow.Do(noop)
	}

	// Warm-up run to avoid measuring one-time costs.
	require.NoError(t, flow.Run(ctx))
	flow.Reset()

	start := time.Now()
	require.NoError(t, flow.Run(ctx))
	total := time.Since(start)

	avgPerStep := total / N
	if avgPerStep >= time.Millisecond {
		t.Fatalf("average engine overhead per step too high: %v (total %v for %d steps)", avgPerStep, total, N)
	}
}

func BenchmarkRun_SingleStepLoop(b *testing.B) {
	ctx := context.Background()
	n := 0
	flow := New("bench").
		DoUntil(Func(func() { n++ }), Check(func() bool { return n%100 == 0 }))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := flow.Reset().Run(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_NestedFlow(b *testing.B) {
	ctx := context.Background()
	inner, outer := 0, 0
	sub := New("inner").
		Do(Func(func() { inner = 0 })).
		DoUntil(Func(func() { inner++ }), Check(func() bool { return inner == 10 }))
	flow := New("outer").
		DoFlow(sub).
		Do(Func(func() { outer++ })).
		LoopUntil(Check(func() bool { return outer == 10 }))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		outer = 0
		if err := flow.Reset().Run(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
