package model

import "time"

// Project is the singleton identity for the local workspace. It is
// created once by setup and is never deleted by the core; every Session
// transitively belongs to the one Project.
type Project struct {
	Id        string
	Name      string
	RepoPath  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
