package sparkq

import (
	"context"
	"time"

	"github.com/sparkq/sparkq/model"
)

// Page bounds a List call with a simple limit/offset pagination window.
// A zero Limit means "no limit" (subject to storage-specific caps).
type Page struct {
	Limit  int
	Offset int
}

// SessionPatch carries the partial set of fields an UpdateSession call
// may change. Nil fields are left untouched.
type SessionPatch struct {
	Name        *string
	Description *string
}

// QueuePatch carries the partial set of fields an UpdateQueue call may
// change. Nil fields are left untouched.
type QueuePatch struct {
	Name         *string
	Instructions *string
}

// TaskListOptions filters ListTasks by queue and/or status.
type TaskListOptions struct {
	QueueId string // empty means no filter
	Status  model.TaskStatus
	Page    Page
}

// QueueListOptions filters ListQueues by session.
type QueueListOptions struct {
	SessionId string // empty means no filter
	Page      Page
}

// Store is the durable persistence contract for SparkQ's five entities
// plus the specialized transactional operations the Lifecycle and
// Watcher depend on. Implementations must satisfy the transactional
// contracts described in spec §4.1: ClaimQueuedInQueue is atomic and
// linearizable per queue; MarkRunningToSucceeded only succeeds from
// running; MarkToFailed succeeds from any non-terminal status.
//
// Store never retries. A caller that receives an error decides whether
// to retry, surface it, or translate it for a transport.
type Store interface {
	// Project

	GetProject(ctx context.Context) (*model.Project, error)
	CreateProject(ctx context.Context, name, repoPath string) (*model.Project, error)

	// Session

	CreateSession(ctx context.Context, name, description string) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	GetSessionByName(ctx context.Context, name string) (*model.Session, error)
	ListSessions(ctx context.Context, page Page) ([]*model.Session, error)
	UpdateSession(ctx context.Context, id string, patch SessionPatch) (*model.Session, error)
	EndSession(ctx context.Context, id string) (*model.Session, error)
	// DeleteSession cascades to the session's queues and their tasks.
	DeleteSession(ctx context.Context, id string) error

	// Queue

	CreateQueue(ctx context.Context, sessionId, name, instructions string) (*model.Queue, error)
	GetQueue(ctx context.Context, id string) (*model.Queue, error)
	GetQueueByName(ctx context.Context, name string) (*model.Queue, error)
	ListQueues(ctx context.Context, opts QueueListOptions) ([]*model.Queue, error)
	UpdateQueue(ctx context.Context, id string, patch QueuePatch) (*model.Queue, error)
	SetQueueStatus(ctx context.Context, id string, status model.QueueStatus) (*model.Queue, error)
	// DeleteQueue cascades to the queue's tasks.
	DeleteQueue(ctx context.Context, id string) error
	QueueStats(ctx context.Context, queueId string) (model.Stats, error)

	// Task: generic CRUD

	CreateTask(ctx context.Context, t *model.Task) (*model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, opts TaskListOptions) ([]*model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Task: specialized transactional operations

	// ClaimQueuedInQueue atomically selects the oldest queued task in
	// queueId (tie-break: lower created_at, then lower id), transitions
	// it to running, sets claimed_at = started_at = now, increments
	// attempts, and returns the updated row. It returns (nil, nil) if no
	// task qualifies.
	ClaimQueuedInQueue(ctx context.Context, queueId string) (*model.Task, error)

	// MarkRunningToSucceeded transitions a running task to succeeded.
	// It fails with a ConflictError if the row is not currently running.
	MarkRunningToSucceeded(ctx context.Context, taskId, resultSummary, result string) (*model.Task, error)

	// MarkToFailed transitions any non-terminal task to failed. The
	// stored error is "errType: message" when errType is non-empty, else
	// message alone. It fails with a ConflictError if the task is
	// already terminal.
	MarkToFailed(ctx context.Context, taskId, message, errType string) (*model.Task, error)

	// MarkStaleWarned sets stale_warned_at = at on a task, only if it is
	// not already set, so a later call never moves the first warning.
	MarkStaleWarned(ctx context.Context, taskId string, at time.Time) error

	// CloneForRequeue clones a terminal task's tool_name, task_class,
	// payload, queue_id and timeout into a brand new queued task. The
	// original row is left unchanged.
	CloneForRequeue(ctx context.Context, taskId string) (*model.Task, error)

	// ListRunning returns all tasks currently in running status, for the
	// Watcher's stale-check pass.
	ListRunning(ctx context.Context) ([]*model.Task, error)

	// DeleteTasksOlderThan deletes tasks whose status is terminal
	// (succeeded or failed) and whose finished_at is at or before cutoff. It
	// returns the number of deleted rows.
	DeleteTasksOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Config

	GetConfigEntry(ctx context.Context, namespace, key string) (*model.ConfigEntry, error)
	ListConfigEntries(ctx context.Context, namespace string) ([]*model.ConfigEntry, error)
	PutConfigEntry(ctx context.Context, namespace, key, value string) (*model.ConfigEntry, error)
	DeleteConfigEntry(ctx context.Context, namespace, key string) error

	// Config projections: tools, task classes, prompts

	ListTools(ctx context.Context) ([]*model.Tool, error)
	// ReplaceTools rewrites the tools projection atomically to match a
	// tools.all config mutation.
	ReplaceTools(ctx context.Context, tools []*model.Tool) error
	ListTaskClasses(ctx context.Context) ([]*model.TaskClass, error)
	// ReplaceTaskClasses rewrites the task_classes projection atomically
	// to match a task_classes.all config mutation.
	ReplaceTaskClasses(ctx context.Context, classes []*model.TaskClass) error
	ListPrompts(ctx context.Context) ([]*model.Prompt, error)
	// SeedPromptsIfEmpty seeds the prompts table from built-ins, but only
	// if it is currently empty; it never upserts over operator edits.
	SeedPromptsIfEmpty(ctx context.Context, prompts []*model.Prompt) error
}
