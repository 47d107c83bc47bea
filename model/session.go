package model

import "time"

// Session is a human-scoped grouping of queues. Session names are unique
// within the project. Deleting a Session cascades to its queues and
// their tasks; ending a Session is an advisory marker only and does not
// cascade.
type Session struct {
	Id          string
	Name        string
	Description string
	Status      SessionStatus
	StartedAt   time.Time
	EndedAt     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
