// Package queuemgr implements the Queue Manager: session and queue
// CRUD, the queue archive/end/unarchive state machine, and derived
// statistics (§4.3).
//
// Like Lifecycle, Manager adds only the input validation and state
// machine checks that the Store does not itself enforce (e.g.
// unarchive requires the queue to currently be archived); the Store
// remains the source of truth for uniqueness and cascade semantics.
package queuemgr
