package sqlite

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createTable(ctx context.Context, db bun.IDB, model interface{}) error {
	_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
	return err
}

func createIndex(ctx context.Context, db bun.IDB, model interface{}, name string, columns ...string) error {
	_, err := db.NewCreateIndex().
		Model(model).
		Index(name).
		Column(columns...).
		IfNotExists().
		Exec(ctx)
	return err
}

func initDB(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	tables := []interface{}{
		(*projectModel)(nil),
		(*sessionModel)(nil),
		(*queueModel)(nil),
		(*taskModel)(nil),
		(*configEntryModel)(nil),
		(*toolModel)(nil),
		(*taskClassModel)(nil),
		(*promptModel)(nil),
	}
	for _, m := range tables {
		if err := createTable(ctx, tx, m); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	// Required for efficient claims: the oldest queued task in a queue,
	// FIFO by created_at.
	if err := createIndex(ctx, tx, (*taskModel)(nil), "idx_tasks_queue_status_created", "queue_id", "status", "created_at"); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	// Required for the Watcher's stale-check pass.
	if err := createIndex(ctx, tx, (*taskModel)(nil), "idx_tasks_status_started", "status", "started_at"); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	// Required for the Watcher's purge pass.
	if err := createIndex(ctx, tx, (*taskModel)(nil), "idx_tasks_status_finished", "status", "finished_at"); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createIndex(ctx, tx, (*queueModel)(nil), "idx_queues_session", "session_id"); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	return tx.Commit()
}

// InitDB initializes the database schema required by the SQLite store.
//
// It creates the projects, sessions, queues, tasks, config, tools,
// task_classes and prompts tables plus required indexes, all inside one
// transaction. InitDB is idempotent and never drops or overwrites
// existing data; it adds missing tables/indexes only.
func InitDB(ctx context.Context, db *bun.DB) error {
	return initDB(ctx, db)
}

// MustInitDB behaves like InitDB but panics if initialization fails. It
// is intended for application bootstrap code where failure to
// initialize schema is considered unrecoverable.
func MustInitDB(ctx context.Context, db *bun.DB) {
	if err := initDB(ctx, db); err != nil {
		panic(err)
	}
}
