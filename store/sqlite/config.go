package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

func (s *Store) GetConfigEntry(ctx context.Context, namespace, key string) (*model.ConfigEntry, error) {
	var m configEntryModel
	err := s.db.NewSelect().Model(&m).Where("namespace = ?", namespace).Where("key_ = ?", key).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("GetConfigEntry", "config", namespace+"."+key)
		}
		return nil, sparkq.NewInternalError("GetConfigEntry", err)
	}
	return m.toModel(), nil
}

func (s *Store) ListConfigEntries(ctx context.Context, namespace string) ([]*model.ConfigEntry, error) {
	var rows []configEntryModel
	err := s.db.NewSelect().Model(&rows).Where("namespace = ?", namespace).Order("key_ ASC").Scan(ctx)
	if err != nil {
		return nil, sparkq.NewInternalError("ListConfigEntries", err)
	}
	ret := make([]*model.ConfigEntry, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

// PutConfigEntry is an upsert keyed on (namespace, key): it inserts a new
// row or overwrites the value of an existing one.
func (s *Store) PutConfigEntry(ctx context.Context, namespace, key, value string) (*model.ConfigEntry, error) {
	now := time.Now()
	m := &configEntryModel{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.NewInsert().
		Model(m).
		On("CONFLICT (namespace, key_) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, sparkq.NewInternalError("PutConfigEntry", err)
	}
	return s.GetConfigEntry(ctx, namespace, key)
}

func (s *Store) DeleteConfigEntry(ctx context.Context, namespace, key string) error {
	res, err := s.db.NewDelete().
		Model((*configEntryModel)(nil)).
		Where("namespace = ?", namespace).
		Where("key_ = ?", key).
		Exec(ctx)
	if err != nil {
		return sparkq.NewInternalError("DeleteConfigEntry", err)
	}
	if !isAffected(res) {
		return sparkq.NewNotFoundError("DeleteConfigEntry", "config", namespace+"."+key)
	}
	return nil
}

func (s *Store) ListTools(ctx context.Context) ([]*model.Tool, error) {
	var rows []toolModel
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, sparkq.NewInternalError("ListTools", err)
	}
	ret := make([]*model.Tool, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

// ReplaceTools replaces the entire tool catalog atomically: the registry
// hands over the whole catalog on every change rather than a diff, so
// the store mirrors that replace-all semantics.
func (s *Store) ReplaceTools(ctx context.Context, tools []*model.Tool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sparkq.NewInternalError("ReplaceTools", err)
	}
	if _, err := tx.NewDelete().Model((*toolModel)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return sparkq.NewInternalError("ReplaceTools", errors.Join(err, tx.Rollback()))
	}
	for _, t := range tools {
		m := &toolModel{Name: t.Name, TaskClass: t.TaskClass, Description: t.Description}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			return sparkq.NewInternalError("ReplaceTools", errors.Join(err, tx.Rollback()))
		}
	}
	if err := tx.Commit(); err != nil {
		return sparkq.NewInternalError("ReplaceTools", err)
	}
	return nil
}

func (s *Store) ListTaskClasses(ctx context.Context) ([]*model.TaskClass, error) {
	var rows []taskClassModel
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, sparkq.NewInternalError("ListTaskClasses", err)
	}
	ret := make([]*model.TaskClass, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

// ReplaceTaskClasses replaces the entire task class catalog atomically,
// same replace-all semantics as ReplaceTools.
func (s *Store) ReplaceTaskClasses(ctx context.Context, classes []*model.TaskClass) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sparkq.NewInternalError("ReplaceTaskClasses", err)
	}
	if _, err := tx.NewDelete().Model((*taskClassModel)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return sparkq.NewInternalError("ReplaceTaskClasses", errors.Join(err, tx.Rollback()))
	}
	for _, c := range classes {
		m := &taskClassModel{Name: c.Name, Timeout: c.Timeout, Description: c.Description}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			return sparkq.NewInternalError("ReplaceTaskClasses", errors.Join(err, tx.Rollback()))
		}
	}
	if err := tx.Commit(); err != nil {
		return sparkq.NewInternalError("ReplaceTaskClasses", err)
	}
	return nil
}

func (s *Store) ListPrompts(ctx context.Context) ([]*model.Prompt, error) {
	var rows []promptModel
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, sparkq.NewInternalError("ListPrompts", err)
	}
	ret := make([]*model.Prompt, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

// SeedPromptsIfEmpty inserts the built-in default prompts the first time
// the project is set up, and is a no-op on every later start once any
// prompt rows exist -- it never overwrites a prompt the user has edited.
func (s *Store) SeedPromptsIfEmpty(ctx context.Context, prompts []*model.Prompt) error {
	count, err := s.db.NewSelect().Model((*promptModel)(nil)).Count(ctx)
	if err != nil {
		return sparkq.NewInternalError("SeedPromptsIfEmpty", err)
	}
	if count > 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sparkq.NewInternalError("SeedPromptsIfEmpty", err)
	}
	for _, p := range prompts {
		m := &promptModel{Name: p.Name, Body: p.Body}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			return sparkq.NewInternalError("SeedPromptsIfEmpty", errors.Join(err, tx.Rollback()))
		}
	}
	if err := tx.Commit(); err != nil {
		return sparkq.NewInternalError("SeedPromptsIfEmpty", err)
	}
	return nil
}
