package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

func (s *Store) CreateSession(ctx context.Context, name, description string) (*model.Session, error) {
	now := time.Now()
	m := &sessionModel{
		Id:          newID(prefixSession),
		Name:        name,
		Description: description,
		Status:      model.SessionActive,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, sparkq.NewValidationError("CreateSession", "name", "session name already in use")
		}
		return nil, sparkq.NewInternalError("CreateSession", err)
	}
	return m.toModel(), nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var m sessionModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("GetSession", "session", id)
		}
		return nil, sparkq.NewInternalError("GetSession", err)
	}
	return m.toModel(), nil
}

func (s *Store) GetSessionByName(ctx context.Context, name string) (*model.Session, error) {
	var m sessionModel
	err := s.db.NewSelect().Model(&m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("GetSessionByName", "session", name)
		}
		return nil, sparkq.NewInternalError("GetSessionByName", err)
	}
	return m.toModel(), nil
}

func (s *Store) ListSessions(ctx context.Context, page sparkq.Page) ([]*model.Session, error) {
	var rows []sessionModel
	q := s.db.NewSelect().Model(&rows).Order("created_at ASC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, sparkq.NewInternalError("ListSessions", err)
	}
	ret := make([]*model.Session, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

func (s *Store) UpdateSession(ctx context.Context, id string, patch sparkq.SessionPatch) (*model.Session, error) {
	q := s.db.NewUpdate().Model((*sessionModel)(nil)).Set("updated_at = ?", time.Now())
	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Description != nil {
		q = q.Set("description = ?", *patch.Description)
	}
	res, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sparkq.NewValidationError("UpdateSession", "name", "session name already in use")
		}
		return nil, sparkq.NewInternalError("UpdateSession", err)
	}
	if !isAffected(res) {
		return nil, sparkq.NewNotFoundError("UpdateSession", "session", id)
	}
	return s.GetSession(ctx, id)
}

func (s *Store) EndSession(ctx context.Context, id string) (*model.Session, error) {
	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*sessionModel)(nil)).
		Set("status = ?", model.SessionEnded).
		Set("ended_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, sparkq.NewInternalError("EndSession", err)
	}
	if !isAffected(res) {
		return nil, sparkq.NewNotFoundError("EndSession", "session", id)
	}
	return s.GetSession(ctx, id)
}

// DeleteSession cascades to the session's queues and their tasks. All
// three deletes run in one transaction so the cascade is atomic.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sparkq.NewInternalError("DeleteSession", err)
	}

	var queueIds []string
	if err := tx.NewSelect().Model((*queueModel)(nil)).Column("id").Where("session_id = ?", id).Scan(ctx, &queueIds); err != nil {
		return sparkq.NewInternalError("DeleteSession", errors.Join(err, tx.Rollback()))
	}

	if len(queueIds) > 0 {
		if _, err := tx.NewDelete().Model((*taskModel)(nil)).Where("queue_id IN (?)", bun.In(queueIds)).Exec(ctx); err != nil {
			return sparkq.NewInternalError("DeleteSession", errors.Join(err, tx.Rollback()))
		}
		if _, err := tx.NewDelete().Model((*queueModel)(nil)).Where("session_id = ?", id).Exec(ctx); err != nil {
			return sparkq.NewInternalError("DeleteSession", errors.Join(err, tx.Rollback()))
		}
	}

	res, err := tx.NewDelete().Model((*sessionModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return sparkq.NewInternalError("DeleteSession", errors.Join(err, tx.Rollback()))
	}
	if !isAffected(res) {
		_ = tx.Rollback()
		return sparkq.NewNotFoundError("DeleteSession", "session", id)
	}

	if err := tx.Commit(); err != nil {
		return sparkq.NewInternalError("DeleteSession", err)
	}
	return nil
}
