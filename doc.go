// Package logicflow composes guarded, repeatable steps into resumable flows.
//
// A flow is an ordered list of steps advanced one tick at a time. Each step
// runs an action or a nested flow and carries optional conditions that
// decide when it runs and when it is done. The whole flow can loop, be
// cancelled, and be nested inside other flows.
//
// # Core Concepts
//
//  1. FlowBuilder
//  2. Step conditions
//  3. Flow loop and cancel conditions
//  4. Drivers (Run, RunAsync, LocalRunner)
//  5. Observers and History
//
// # FlowBuilder
//
// FlowBuilder is the fluent API used to define flows:
//
//	n := 0
//	flow := logicflow.New("count").
//	    DoUntil(logicflow.Func(func() { n++ }),
//	        logicflow.Check(func() bool { return n == 15 })).
//	    OnComplete(logicflow.Func(func() { fmt.Println(n) }))
//
//	err := flow.Run(ctx)
//
// Builder misuse, such as attaching a condition before any step exists,
// panics at the call site with a *BuilderError.
//
// # Step conditions
//
// On every tick the current step is advanced:
//
//   - ContinueWhen: when all continue conditions hold, the step finishes
//     without running its body.
//   - When: the body runs only when all run-if conditions hold.
//   - Until: with exit conditions the step stays current, running on every
//     tick, until all of them hold. Without them a step finishes after one
//     advance, and a nested flow step finishes when the nested flow
//     completes.
//
// OnStepComplete registers a hook called each time a step finishes.
//
// # Loop and cancel
//
// After the last step finishes, the loop condition (LoopUntil) decides
// whether the flow completes or starts another pass from its first step
// with every step, including nested flows, reset. Loop repeats forever.
// The cancel condition (CancelWhen) is checked at the start of every tick
// and ends the flow without calling the OnComplete hook.
//
// # Drivers
//
// Run ticks a flow until it completes, checking ctx between ticks.
// RunAsync does the same on a new goroutine and returns an *Execution.
// LocalRunner interleaves many independent flows on a pool of goroutines,
// one tick per turn.
//
// Errors returned by actions and predicates stop the flow where it was and
// are returned unchanged. Nothing is retried or rolled back.
//
// # Observers and History
//
// Observers receive flow and step lifecycle callbacks. LoggingObserver
// writes them to log/slog, BasicMetrics counts them, and History records
// them per run in memory, SQLite or Redis.
package logicflow
