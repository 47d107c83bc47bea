package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

func (s *Store) CreateQueue(ctx context.Context, sessionId, name, instructions string) (*model.Queue, error) {
	var exists string
	err := s.db.NewSelect().Model((*sessionModel)(nil)).Column("id").Where("id = ?", sessionId).Limit(1).Scan(ctx, &exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("CreateQueue", "session", sessionId)
		}
		return nil, sparkq.NewInternalError("CreateQueue", err)
	}

	now := time.Now()
	m := &queueModel{
		Id:           newID(prefixQueue),
		SessionId:    sessionId,
		Name:         name,
		Instructions: instructions,
		Status:       model.QueueActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, sparkq.NewValidationError("CreateQueue", "name", "queue name already in use")
		}
		return nil, sparkq.NewInternalError("CreateQueue", err)
	}
	return m.toModel(), nil
}

func (s *Store) GetQueue(ctx context.Context, id string) (*model.Queue, error) {
	var m queueModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("GetQueue", "queue", id)
		}
		return nil, sparkq.NewInternalError("GetQueue", err)
	}
	return m.toModel(), nil
}

func (s *Store) GetQueueByName(ctx context.Context, name string) (*model.Queue, error) {
	var m queueModel
	err := s.db.NewSelect().Model(&m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("GetQueueByName", "queue", name)
		}
		return nil, sparkq.NewInternalError("GetQueueByName", err)
	}
	return m.toModel(), nil
}

func (s *Store) ListQueues(ctx context.Context, opts sparkq.QueueListOptions) ([]*model.Queue, error) {
	var rows []queueModel
	q := s.db.NewSelect().Model(&rows).Order("created_at ASC")
	if opts.SessionId != "" {
		q = q.Where("session_id = ?", opts.SessionId)
	}
	if opts.Page.Limit > 0 {
		q = q.Limit(opts.Page.Limit)
	}
	if opts.Page.Offset > 0 {
		q = q.Offset(opts.Page.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, sparkq.NewInternalError("ListQueues", err)
	}
	ret := make([]*model.Queue, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

func (s *Store) UpdateQueue(ctx context.Context, id string, patch sparkq.QueuePatch) (*model.Queue, error) {
	q := s.db.NewUpdate().Model((*queueModel)(nil)).Set("updated_at = ?", time.Now())
	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Instructions != nil {
		q = q.Set("instructions = ?", *patch.Instructions)
	}
	res, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sparkq.NewValidationError("UpdateQueue", "name", "queue name already in use")
		}
		return nil, sparkq.NewInternalError("UpdateQueue", err)
	}
	if !isAffected(res) {
		return nil, sparkq.NewNotFoundError("UpdateQueue", "queue", id)
	}
	return s.GetQueue(ctx, id)
}

func (s *Store) SetQueueStatus(ctx context.Context, id string, status model.QueueStatus) (*model.Queue, error) {
	res, err := s.db.NewUpdate().
		Model((*queueModel)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, sparkq.NewInternalError("SetQueueStatus", err)
	}
	if !isAffected(res) {
		return nil, sparkq.NewNotFoundError("SetQueueStatus", "queue", id)
	}
	return s.GetQueue(ctx, id)
}

// DeleteQueue cascades to the queue's tasks. Both deletes run in one
// transaction so the cascade is atomic.
func (s *Store) DeleteQueue(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sparkq.NewInternalError("DeleteQueue", err)
	}

	if _, err := tx.NewDelete().Model((*taskModel)(nil)).Where("queue_id = ?", id).Exec(ctx); err != nil {
		return sparkq.NewInternalError("DeleteQueue", errors.Join(err, tx.Rollback()))
	}

	res, err := tx.NewDelete().Model((*queueModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return sparkq.NewInternalError("DeleteQueue", errors.Join(err, tx.Rollback()))
	}
	if !isAffected(res) {
		_ = tx.Rollback()
		return sparkq.NewNotFoundError("DeleteQueue", "queue", id)
	}

	if err := tx.Commit(); err != nil {
		return sparkq.NewInternalError("DeleteQueue", err)
	}
	return nil
}

// QueueStats groups the queue's tasks by status into {total, done,
// running, queued}, computed fresh from the store at call time (spec
// §4.3: "no caching at this layer").
func (s *Store) QueueStats(ctx context.Context, queueId string) (model.Stats, error) {
	type row struct {
		Status model.TaskStatus
		Count  int
	}
	var rows []row
	err := s.db.NewSelect().
		Model((*taskModel)(nil)).
		ColumnExpr("status").
		ColumnExpr("count(*) AS count").
		Where("queue_id = ?", queueId).
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return model.Stats{}, sparkq.NewInternalError("QueueStats", err)
	}
	var stats model.Stats
	for _, r := range rows {
		stats.Total += r.Count
		switch r.Status {
		case model.TaskQueued:
			stats.Queued += r.Count
		case model.TaskRunning:
			stats.Running += r.Count
		case model.TaskSucceeded, model.TaskFailed:
			stats.Done += r.Count
		}
	}
	return stats, nil
}

