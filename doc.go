// Package sparkq provides the scheduling and persistence core of a
// local-first task-queue service for a single developer machine.
//
// # Overview
//
// Clients submit tasks to named queues; a durable Store persists them,
// a Lifecycle assigns and tracks them through an explicit state machine,
// a QueueManager owns session/queue containment, a Watcher enforces
// per-task deadlines and purges old results on a timer, and a Config
// Registry supplies layered runtime configuration (tool catalog,
// task-class timeouts, feature flags) to all of the above.
//
// SparkQ is not a distributed job scheduler or a managed execution
// runtime: workers are external processes that poll the server for
// work. This module covers the core only -- HTTP transport, CLI,
// browser UI, and backup/restore tooling are external collaborators
// that talk to this core through the Store, Lifecycle, QueueManager and
// Config Registry APIs.
//
// # Task Lifecycle
//
// Tasks follow this state machine:
//
//	queued  -> running    (claim)
//	running -> succeeded  (complete)
//	running -> failed     (fail, by a worker or the Watcher)
//	queued  -> failed     (fail, explicit)
//
// Terminal states (succeeded, failed) are never retried automatically;
// Requeue creates a brand new task row and leaves the original
// unchanged, preserving it for audit.
//
// # Delivery Semantics
//
// SparkQ guarantees at-most-one concurrent claim per task (the claim
// operation is linearizable within one queue), not idempotent side
// effects in the worker. Workers must tolerate being the sole claimant
// of a task while still handling failures and timeouts gracefully.
//
// # Deadlines
//
// Every task carries a timeout resolved at enqueue time. The Watcher
// warns once a running task has exceeded 1x its timeout (soft deadline)
// and auto-fails it at 2x (hard deadline) with a TIMEOUT error.
//
// # Error Taxonomy
//
// All core operations raise one of four typed errors -- ValidationError,
// NotFoundError, ConflictError, InternalError -- so adapters can map them
// onto a transport's error representation unambiguously. See errors.go.
//
// # Concurrency Model
//
// The Store is the only shared mutable resource. All writes acquire a
// connection in an immediate-or-equivalent transaction mode; reads use a
// snapshot. The Watcher competes with API handlers on the same store and
// the store's locking model serializes them deterministically.
package sparkq
