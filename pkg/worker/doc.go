// Package worker provides the cooperative scheduler used to drive logicflow
// flows in the background.
//
// A Worker owns a task queue of submitted flows. Each call to ProcessOne
// takes the flow at the head of the queue, ticks it (Config.TicksPerTurn
// times, once by default), and either puts it back at the end of the queue
// or resolves its api.Execution when the flow completes, fails, or its
// submitter's context is cancelled.
//
// # Guarantees
//
//   - A flow is in the queue at most once, so it is never ticked by two
//     goroutines at the same time. Submitting it again while in flight
//     returns ErrAlreadySubmitted.
//   - The number of in-flight flows never exceeds the queue capacity, so
//     putting a flow back after its turn never blocks. Submit returns
//     ErrQueueFull instead.
//   - Independent flows are interleaved one turn at a time; no flow is ever
//     run in parallel with itself.
//
// # Usage
//
// Most users should go through logicflow.LocalRunner, which owns a queue,
// a Worker and a pool of goroutines calling ProcessOne. The worker package
// is useful when embedding the scheduler into an existing worker loop.
package worker
