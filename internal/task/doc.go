// Package task provides the asynchronous task bridge of ToolBox.
//
// A Task is a unit of work run by an external worker pool. The Scheduler is a
// thin orchestration layer over that pool:
//
//   - Submit optionally routes a task through a configuration step, chosen
//     by task type from a Configurations table, before forwarding it.
//   - Execute attaches a progress observer to tasks implementing
//     ProgressReporter before queueing, so no event is missed.
//   - Every pool and progress callback is posted to a Poster, the
//     single-consumer queue drained by the control goroutine, and only there
//     applied to the Table display sink.
//   - Stop asks the pool to stop; teardown runs once, after the pool reports
//     that it stopped.
//
// # Task States
//
//	queued -> running -> succeeded | failed | cancelled
//
// A row in the Table never moves backwards and ignores updates once it has
// reached a terminal state.
package task
