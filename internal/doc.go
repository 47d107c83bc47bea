// Package internal provides small concurrency primitives shared by the
// Watcher: a cancellable periodic timer task and a strict start-once/
// stop-once lifecycle guard. Neither primitive is specific to task
// queueing; both are reused as-is from the scheduling core's
// background-loop machinery.
package internal
