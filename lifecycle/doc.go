// Package lifecycle implements the task state machine described in
// §4.2: enqueue, claim, complete, fail, and requeue, plus the quick-add
// convenience operation built on top of enqueue.
//
// Lifecycle holds no state of its own beyond a Store and a Config
// Registry; every operation is a thin, validated pass-through to a
// Store method, mirroring how the teacher's Worker sits on top of a
// Puller without owning persistence itself.
package lifecycle
