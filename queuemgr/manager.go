package queuemgr

import (
	"context"
	"strings"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

// Manager owns session and queue containment on top of a Store.
type Manager struct {
	store sparkq.Store
}

// New creates a Manager over the given Store.
func New(store sparkq.Store) *Manager {
	return &Manager{store: store}
}

// ProjectStats is the project-wide totals exposed at the boundary (§6):
// session and queue counts, plus queued/running task counts across every queue.
type ProjectStats struct {
	Sessions int
	Queues   int
	Queued   int
	Running  int
}

func (m *Manager) CreateSession(ctx context.Context, name, description string) (*model.Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, sparkq.NewValidationError("CreateSession", "name", "must be non-empty")
	}
	return m.store.CreateSession(ctx, name, description)
}

func (m *Manager) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return m.store.GetSession(ctx, id)
}

func (m *Manager) ListSessions(ctx context.Context, page sparkq.Page) ([]*model.Session, error) {
	return m.store.ListSessions(ctx, page)
}

func (m *Manager) UpdateSession(ctx context.Context, id string, patch sparkq.SessionPatch) (*model.Session, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, sparkq.NewValidationError("UpdateSession", "name", "must be non-empty")
	}
	return m.store.UpdateSession(ctx, id, patch)
}

func (m *Manager) EndSession(ctx context.Context, id string) (*model.Session, error) {
	return m.store.EndSession(ctx, id)
}

// DeleteSession cascade-deletes the session's queues and their tasks
// (the session end/delete asymmetry of §4.3).
func (m *Manager) DeleteSession(ctx context.Context, id string) error {
	return m.store.DeleteSession(ctx, id)
}

func (m *Manager) CreateQueue(ctx context.Context, sessionId, name, instructions string) (*model.Queue, error) {
	if strings.TrimSpace(name) == "" {
		return nil, sparkq.NewValidationError("CreateQueue", "name", "must be non-empty")
	}
	return m.store.CreateQueue(ctx, sessionId, name, instructions)
}

func (m *Manager) GetQueue(ctx context.Context, id string) (*model.Queue, error) {
	return m.store.GetQueue(ctx, id)
}

func (m *Manager) ListQueues(ctx context.Context, opts sparkq.QueueListOptions) ([]*model.Queue, error) {
	return m.store.ListQueues(ctx, opts)
}

func (m *Manager) UpdateQueue(ctx context.Context, id string, patch sparkq.QueuePatch) (*model.Queue, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, sparkq.NewValidationError("UpdateQueue", "name", "must be non-empty")
	}
	return m.store.UpdateQueue(ctx, id, patch)
}

// EndQueue marks a queue ended. Ending never cascades to the queue's tasks.
func (m *Manager) EndQueue(ctx context.Context, id string) (*model.Queue, error) {
	return m.store.SetQueueStatus(ctx, id, model.QueueEnded)
}

// ArchiveQueue marks a queue archived, rejecting new enqueues until unarchived.
func (m *Manager) ArchiveQueue(ctx context.Context, id string) (*model.Queue, error) {
	return m.store.SetQueueStatus(ctx, id, model.QueueArchived)
}

// UnarchiveQueue returns an archived queue to active. It is a conflict
// to unarchive a queue that is not currently archived.
func (m *Manager) UnarchiveQueue(ctx context.Context, id string) (*model.Queue, error) {
	q, err := m.store.GetQueue(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != model.QueueArchived {
		return nil, sparkq.NewConflictError("UnarchiveQueue", "queue", id, q.Status.String(), "only archived queues can be unarchived")
	}
	return m.store.SetQueueStatus(ctx, id, model.QueueActive)
}

// DeleteQueue cascade-deletes the queue's tasks.
func (m *Manager) DeleteQueue(ctx context.Context, id string) error {
	return m.store.DeleteQueue(ctx, id)
}

// QueueStats computes {total, done, running, queued} fresh from the
// store; there is no caching at this layer (§4.3).
func (m *Manager) QueueStats(ctx context.Context, queueId string) (model.Stats, error) {
	return m.store.QueueStats(ctx, queueId)
}

// ProjectStats computes project-wide totals across every session, queue
// and task for the boundary's stats operation (§6).
func (m *Manager) ProjectStats(ctx context.Context) (ProjectStats, error) {
	sessions, err := m.store.ListSessions(ctx, sparkq.Page{})
	if err != nil {
		return ProjectStats{}, err
	}
	queues, err := m.store.ListQueues(ctx, sparkq.QueueListOptions{})
	if err != nil {
		return ProjectStats{}, err
	}
	queued, err := m.store.ListTasks(ctx, sparkq.TaskListOptions{Status: model.TaskQueued})
	if err != nil {
		return ProjectStats{}, err
	}
	running, err := m.store.ListTasks(ctx, sparkq.TaskListOptions{Status: model.TaskRunning})
	if err != nil {
		return ProjectStats{}, err
	}
	return ProjectStats{
		Sessions: len(sessions),
		Queues:   len(queues),
		Queued:   len(queued),
		Running:  len(running),
	}, nil
}
