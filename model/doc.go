// Package model defines the persistent entities managed by SparkQ's core:
// Project, Session, Queue, Task, and ConfigEntry.
//
// These types are snapshots of storage state. They carry no behavior
// beyond simple derived fields (such as Task.FriendlyID) and status
// parsing; state transitions are performed exclusively through the
// Store interface and the Lifecycle/QueueManager packages that sit on
// top of it. Mutating a returned model value does not affect the
// underlying queue.
package model
