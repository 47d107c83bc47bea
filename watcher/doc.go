// Package watcher implements the background loop described in spec
// §4.4: a stale-check pass that warns at 1x a running task's timeout and
// auto-fails it at 2x, and a purge pass that deletes old terminal tasks.
// Its scheduling primitives (internal.TimerTask, internal.LifecycleBase)
// are reused from the teacher library's CleanWorker/Worker loops, adapted
// to run two concerns off one struct instead of one.
package watcher
