// Package api contains the core building blocks used by the logicflow
// engine: conditions, steps, flows, the driver loop, and observers.
//
// Most users interact with the higher-level logicflow package, which wraps
// these types in a fluent builder. The api package is intended for advanced
// use cases, custom drivers, or contributors extending the engine itself.
//
// # Concepts
//
//   - Condition: a Predicate evaluated again on every check.
//   - Step: a Body (an Action or a nested Flow) plus run-if, continue and
//     exit conditions and an optional completion hook.
//   - Flow: an ordered list of steps with a cursor, a loop condition and a
//     cancel condition. Tick advances it by at most one step.
//   - Driver: Run ticks a flow until it completes; RunAsync does the same on
//     a goroutine and returns an Execution.
//
// # Ticks and passes
//
// One Tick checks the cancel condition, advances the current step, and
// moves the cursor when that step finishes. A pass is one walk from the
// first step to the last. After the last step the loop condition either
// completes the flow or resets every step (nested flows included) and starts
// another pass.
//
// # Errors
//
// Errors returned by actions, predicates and hooks propagate out of Tick and
// Run unchanged. The engine does not retry and does not roll back: the flow
// stays exactly where the failing call left it.
//
// # Observability
//
// Observer receives flow and step lifecycle callbacks. LoggingObserver
// writes them to log/slog, BasicMetrics counts them, and HistoryObserver
// appends them to an EventRecorder.
package api
