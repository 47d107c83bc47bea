package model

import "time"

// Queue is a FIFO container of tasks within one session. Queue names are
// unique across the whole project, not just within a session -- a
// historical choice carried by the data model (see spec §4.3).
type Queue struct {
	Id           string
	SessionId    string
	Name         string
	Instructions string
	Status       QueueStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stats holds derived task counts for a Queue, computed fresh from the
// store at the instant of the call; QueueManager never caches them.
type Stats struct {
	Total   int
	Done    int
	Running int
	Queued  int
}
