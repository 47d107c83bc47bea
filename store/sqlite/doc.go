// Package sqlite provides a bun-based SQLite storage implementation of
// sparkq.Store.
//
// # Overview
//
// This package implements every Store operation -- generic entity CRUD,
// the cascade deletes for Session and Queue, and the specialized
// transactional task operations (ClaimQueuedInQueue,
// MarkRunningToSucceeded, MarkToFailed, CloneForRequeue, ListRunning,
// DeleteTasksOlderThan) -- against a single embedded SQLite database via
// github.com/uptrace/bun.
//
// # Concurrency Model
//
// ClaimQueuedInQueue is implemented as a single atomic
// UPDATE ... WHERE id IN (subquery) ... RETURNING statement, selecting
// the oldest queued task by created_at (ties broken by id) and
// transitioning it to running in one round trip, so no other caller can
// observe an intermediate state. MarkRunningToSucceeded and MarkToFailed
// use a single UPDATE whose WHERE clause asserts the expected prior
// status, then re-read the row; when no row is affected they report a
// ConflictError naming the current status (or a NotFoundError if the
// task does not exist).
//
// # Schema
//
// InitDB creates, if missing, the projects, sessions, queues, tasks,
// config, tools, task_classes and prompts tables, along with task
// indexes on (queue_id, status, created_at), (status, started_at) and
// (status, finished_at) -- for claims, stale checks and purges -- and a
// queue index on session_id. InitDB is idempotent, runs inside one
// transaction, and never drops or overwrites existing data; it is safe
// to call on every process startup.
//
// # Database Lifecycle
//
// This package does not manage connection pooling or migrations beyond
// InitDB's additive schema creation. The caller is responsible for
// opening *bun.DB in WAL mode with an appropriate busy_timeout (SQLite
// readers must not block writers, per spec §4.1) and for running InitDB
// before first use.
package sqlite
