package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

// GetProject returns the singleton project, or a NotFoundError if setup
// has not yet created one.
func (s *Store) GetProject(ctx context.Context) (*model.Project, error) {
	var m projectModel
	err := s.db.NewSelect().Model(&m).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("GetProject", "project", "")
		}
		return nil, sparkq.NewInternalError("GetProject", err)
	}
	return m.toModel(), nil
}

// CreateProject creates the singleton project. It is called once by
// setup and is never deleted by the core.
func (s *Store) CreateProject(ctx context.Context, name, repoPath string) (*model.Project, error) {
	now := time.Now()
	m := &projectModel{
		Id:        newID(prefixProject),
		Name:      name,
		RepoPath:  repoPath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return nil, sparkq.NewInternalError("CreateProject", err)
	}
	return m.toModel(), nil
}
