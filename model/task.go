package model

import (
	"strings"
	"time"
)

// Task is the unit of work. FriendlyId is computed once at creation time
// from the owning queue's name and the task's own id, and is never
// rewritten -- renaming a queue later does not rewrite task history (see
// spec §9). The core must not rely on the "last 4 of id" rule for
// identity; FriendlyId is a presentation detail.
type Task struct {
	Id         string
	FriendlyId string
	QueueId    string

	ToolName  string
	TaskClass string
	Payload   string

	Status   TaskStatus
	Timeout  int // seconds
	Attempts int

	Result        string
	ResultSummary string
	Error         string
	ErrorMessage  string

	StaleWarnedAt *time.Time

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	ClaimedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}

// FriendlyId derives the presentation identifier "QUEUE_NAME-<last 4 of
// id>" for a task belonging to queueName. It is computed once at
// creation time and stored; this helper exists so stores and tests share
// one derivation rule.
func FriendlyId(queueName, taskId string) string {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(queueName), " ", "_"))
	suffix := taskId
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return name + "-" + suffix
}
