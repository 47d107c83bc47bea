package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

// CreateTask inserts a new queued task. t must carry QueueId, ToolName,
// TaskClass, Payload and Timeout; CreateTask fills Id, FriendlyId,
// Status, Attempts and the timestamp set. The owning queue must exist
// and be active, or CreateTask fails with NotFoundError/ConflictError
// respectively -- this enforces invariant I1 at the store layer, not
// just in the Lifecycle, so it holds even under concurrent archiving.
func (s *Store) CreateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, sparkq.NewInternalError("CreateTask", err)
	}

	var q queueModel
	err = tx.NewSelect().Model(&q).Where("id = ?", t.QueueId).Scan(ctx)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("CreateTask", "queue", t.QueueId)
		}
		return nil, sparkq.NewInternalError("CreateTask", err)
	}
	if q.Status != model.QueueActive {
		_ = tx.Rollback()
		return nil, sparkq.NewConflictError("CreateTask", "queue", t.QueueId, q.Status.String(), "queue is not active")
	}

	now := time.Now()
	id := newID(prefixTask)
	m := &taskModel{
		Id:         id,
		FriendlyId: model.FriendlyId(q.Name, id),
		QueueId:    t.QueueId,
		ToolName:   t.ToolName,
		TaskClass:  t.TaskClass,
		Payload:    t.Payload,
		Status:     model.TaskQueued,
		Timeout:    t.Timeout,
		Attempts:   0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
		return nil, sparkq.NewInternalError("CreateTask", errors.Join(err, tx.Rollback()))
	}
	if err := tx.Commit(); err != nil {
		return nil, sparkq.NewInternalError("CreateTask", err)
	}
	return m.toModel(), nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var m taskModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("GetTask", "task", id)
		}
		return nil, sparkq.NewInternalError("GetTask", err)
	}
	return m.toModel(), nil
}

func (s *Store) ListTasks(ctx context.Context, opts sparkq.TaskListOptions) ([]*model.Task, error) {
	var rows []taskModel
	q := s.db.NewSelect().Model(&rows).Order("created_at ASC")
	if opts.QueueId != "" {
		q = q.Where("queue_id = ?", opts.QueueId)
	}
	if opts.Status != model.TaskUnknown {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Page.Limit > 0 {
		q = q.Limit(opts.Page.Limit)
	}
	if opts.Page.Offset > 0 {
		q = q.Offset(opts.Page.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, sparkq.NewInternalError("ListTasks", err)
	}
	ret := make([]*model.Task, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*taskModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return sparkq.NewInternalError("DeleteTask", err)
	}
	if !isAffected(res) {
		return sparkq.NewNotFoundError("DeleteTask", "task", id)
	}
	return nil
}

// ClaimQueuedInQueue is a single atomic UPDATE ... WHERE id IN (subquery)
// ... RETURNING statement: it selects the oldest queued task in queueId
// (FIFO by created_at, ties broken by id), transitions it to running,
// and increments attempts in one round trip, so no other caller can
// observe an intermediate state.
func (s *Store) ClaimQueuedInQueue(ctx context.Context, queueId string) (*model.Task, error) {
	now := time.Now()
	subQuery := s.db.NewSelect().
		Model((*taskModel)(nil)).
		Column("id").
		Where("queue_id = ?", queueId).
		Where("status = ?", model.TaskQueued).
		Order("created_at ASC", "id ASC").
		Limit(1)

	var rows []taskModel
	err := s.db.NewUpdate().
		Model((*taskModel)(nil)).
		Set("status = ?", model.TaskRunning).
		Set("claimed_at = ?", now).
		Set("started_at = ?", now).
		Set("attempts = attempts + 1").
		Set("updated_at = ?", now).
		Where("id IN (?)", subQuery).
		Returning("*").
		Scan(ctx, &rows)
	if err != nil {
		return nil, sparkq.NewInternalError("ClaimQueuedInQueue", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel(), nil
}

// MarkRunningToSucceeded transitions a running task to succeeded. It
// fails with a ConflictError naming the task's current status if the
// row is not currently running.
func (s *Store) MarkRunningToSucceeded(ctx context.Context, taskId, resultSummary, result string) (*model.Task, error) {
	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*taskModel)(nil)).
		Set("status = ?", model.TaskSucceeded).
		Set("completed_at = ?", now).
		Set("finished_at = ?", now).
		Set("result = ?", result).
		Set("result_summary = ?", resultSummary).
		Set("updated_at = ?", now).
		Where("id = ?", taskId).
		Where("status = ?", model.TaskRunning).
		Exec(ctx)
	if err != nil {
		return nil, sparkq.NewInternalError("Complete", err)
	}
	if !isAffected(res) {
		return s.conflictOrNotFound(ctx, "Complete", taskId, "task is not running")
	}
	return s.GetTask(ctx, taskId)
}

// MarkToFailed transitions any non-terminal task to failed. The stored
// error is "errType: message" when errType is non-empty, else message
// alone.
func (s *Store) MarkToFailed(ctx context.Context, taskId, message, errType string) (*model.Task, error) {
	now := time.Now()
	composed := message
	if errType != "" {
		composed = fmt.Sprintf("%s: %s", errType, message)
	}
	res, err := s.db.NewUpdate().
		Model((*taskModel)(nil)).
		Set("status = ?", model.TaskFailed).
		Set("failed_at = ?", now).
		Set("finished_at = ?", now).
		Set("error = ?", composed).
		Set("error_message = ?", message).
		Set("updated_at = ?", now).
		Where("id = ?", taskId).
		Where("status IN (?, ?)", model.TaskQueued, model.TaskRunning).
		Exec(ctx)
	if err != nil {
		return nil, sparkq.NewInternalError("Fail", err)
	}
	if !isAffected(res) {
		return s.conflictOrNotFound(ctx, "Fail", taskId, "task is already terminal")
	}
	return s.GetTask(ctx, taskId)
}

// conflictOrNotFound is used after an Exec affected no rows to decide
// whether the task does not exist at all (NotFoundError) or exists in a
// status that rejects the requested transition (ConflictError).
func (s *Store) conflictOrNotFound(ctx context.Context, op, taskId, message string) (*model.Task, error) {
	current, err := s.GetTask(ctx, taskId)
	if err != nil {
		return nil, err
	}
	return nil, sparkq.NewConflictError(op, "task", taskId, current.Status.String(), message)
}

// MarkStaleWarned sets stale_warned_at = at on the task, but only if it
// is not already set -- the Watcher must not re-warn on subsequent
// passes. It does not check the task's status.
func (s *Store) MarkStaleWarned(ctx context.Context, taskId string, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*taskModel)(nil)).
		Set("stale_warned_at = ?", at).
		Where("id = ?", taskId).
		Where("stale_warned_at IS NULL").
		Exec(ctx)
	if err != nil {
		return sparkq.NewInternalError("MarkStaleWarned", err)
	}
	return nil
}

// CloneForRequeue clones a terminal task's tool_name, task_class,
// payload, queue_id and timeout into a brand new queued task with a
// fresh id/friendly_id and reset attempts/timestamps. The original row
// is left unchanged for audit.
func (s *Store) CloneForRequeue(ctx context.Context, taskId string) (*model.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, sparkq.NewInternalError("Requeue", err)
	}

	var orig taskModel
	err = tx.NewSelect().Model(&orig).Where("id = ?", taskId).Scan(ctx)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sparkq.NewNotFoundError("Requeue", "task", taskId)
		}
		return nil, sparkq.NewInternalError("Requeue", err)
	}
	if !orig.Status.IsTerminal() {
		_ = tx.Rollback()
		return nil, sparkq.NewConflictError("Requeue", "task", taskId, orig.Status.String(), "only terminal tasks can be requeued")
	}

	var q queueModel
	if err := tx.NewSelect().Model(&q).Where("id = ?", orig.QueueId).Scan(ctx); err != nil {
		_ = tx.Rollback()
		return nil, sparkq.NewInternalError("Requeue", err)
	}

	now := time.Now()
	id := newID(prefixTask)
	clone := &taskModel{
		Id:         id,
		FriendlyId: model.FriendlyId(q.Name, id),
		QueueId:    orig.QueueId,
		ToolName:   orig.ToolName,
		TaskClass:  orig.TaskClass,
		Payload:    orig.Payload,
		Status:     model.TaskQueued,
		Timeout:    orig.Timeout,
		Attempts:   0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := tx.NewInsert().Model(clone).Exec(ctx); err != nil {
		return nil, sparkq.NewInternalError("Requeue", errors.Join(err, tx.Rollback()))
	}
	if err := tx.Commit(); err != nil {
		return nil, sparkq.NewInternalError("Requeue", err)
	}
	return clone.toModel(), nil
}

// ListRunning returns all tasks currently in running status with a
// non-null started_at, for the Watcher's stale-check pass.
func (s *Store) ListRunning(ctx context.Context) ([]*model.Task, error) {
	var rows []taskModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", model.TaskRunning).
		Where("started_at IS NOT NULL").
		Scan(ctx)
	if err != nil {
		return nil, sparkq.NewInternalError("ListRunning", err)
	}
	ret := make([]*model.Task, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

// DeleteTasksOlderThan deletes terminal tasks whose finished_at is at
// or before cutoff. Non-terminal tasks are never matched.
func (s *Store) DeleteTasksOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*taskModel)(nil)).
		Where("status IN (?, ?)", model.TaskSucceeded, model.TaskFailed).
		Where("finished_at <= ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, sparkq.NewInternalError("Purge", err)
	}
	return getAffected(res), nil
}
