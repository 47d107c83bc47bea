package watcher_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"

	"github.com/sparkq/sparkq/config"
	"github.com/sparkq/sparkq/lifecycle"
	"github.com/sparkq/sparkq/model"
	"github.com/sparkq/sparkq/store/sqlite"
	"github.com/sparkq/sparkq/watcher"
)

type testEnv struct {
	store    *sqlite.Store
	lc       *lifecycle.Lifecycle
	registry *config.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := sqlite.InitDB(ctx, db); err != nil {
		t.Fatal(err)
	}
	store := sqlite.New(db)

	path := filepath.Join(t.TempDir(), "sparkq.yaml")
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	registry, err := config.Open(ctx, store, path, log)
	if err != nil {
		t.Fatal(err)
	}

	return &testEnv{store: store, lc: lifecycle.New(store, registry, log), registry: registry}
}

// setFastStaleInterval pins the stale-check loop to a 1s tick so tests
// don't wait out the real 30s default; it must run before the Watcher
// under test is constructed, since New resolves the interval once.
func (e *testEnv) setFastStaleInterval(t *testing.T) {
	t.Helper()
	_, err := e.registry.Put(context.Background(), "queue_runner", "config",
		"auto_fail_interval_seconds: 1\npurge_interval_seconds: 3600\n")
	if err != nil {
		t.Fatal(err)
	}
}

func newTestWatcher(t *testing.T, e *testEnv) *watcher.Watcher {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w, err := watcher.New(context.Background(), e.store, e.lc, e.registry, log)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// Scenario B from §8: enqueue timeout=1, claim, wait > 2s, run a
// stale-check pass. Expect the task auto-failed with the TIMEOUT error.
func TestScenarioBDeadline(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.setFastStaleInterval(t)
	w := newTestWatcher(t, e)

	s, err := e.store.CreateSession(ctx, "deadline-session", "")
	if err != nil {
		t.Fatal(err)
	}
	q, err := e.store.CreateQueue(ctx, s.Id, "deadline-queue", "")
	if err != nil {
		t.Fatal(err)
	}
	task, err := e.lc.Enqueue(ctx, q.Id, "run-bash", "FAST_SCRIPT", 1, "{}")
	if err != nil {
		t.Fatal(err)
	}
	claimed, err := e.lc.Claim(ctx, q.Id, "worker-1")
	if err != nil {
		t.Fatal(err)
	}
	if claimed.Id != task.Id {
		t.Fatalf("expected to claim %s, got %s", task.Id, claimed.Id)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop(time.Second)

	time.Sleep(2200 * time.Millisecond)

	got, err := e.store.GetTask(ctx, task.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.TaskFailed {
		t.Fatalf("expected task to be auto-failed, got status %v", got.Status)
	}
	if got.Error != "TIMEOUT: Task timeout (auto-failed)" {
		t.Fatalf("expected composed TIMEOUT error, got %q", got.Error)
	}
	if got.FailedAt == nil {
		t.Fatal("expected failed_at to be set")
	}
}

// Soft deadline: between 1x and 2x timeout, the task is warned exactly
// once and left running.
func TestStaleWarnOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.setFastStaleInterval(t)
	w := newTestWatcher(t, e)

	s, err := e.store.CreateSession(ctx, "warn-session", "")
	if err != nil {
		t.Fatal(err)
	}
	q, err := e.store.CreateQueue(ctx, s.Id, "warn-queue", "")
	if err != nil {
		t.Fatal(err)
	}
	task, err := e.lc.Enqueue(ctx, q.Id, "run-bash", "FAST_SCRIPT", 2, "{}")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.lc.Claim(ctx, q.Id, ""); err != nil {
		t.Fatal(err)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop(time.Second)

	// Past the soft (1x, 2s) deadline, short of the hard (2x, 4s) deadline.
	time.Sleep(2500 * time.Millisecond)

	got, err := e.store.GetTask(ctx, task.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.TaskRunning {
		t.Fatalf("expected task to still be running, got %v", got.Status)
	}
	if got.StaleWarnedAt == nil {
		t.Fatal("expected stale_warned_at to be set after the soft deadline")
	}
	firstWarn := *got.StaleWarnedAt

	// One more pass before the hard deadline: must not re-warn.
	time.Sleep(1000 * time.Millisecond)
	got2, err := e.store.GetTask(ctx, task.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got2.Status == model.TaskRunning && (got2.StaleWarnedAt == nil || !got2.StaleWarnedAt.Equal(firstWarn)) {
		t.Fatalf("expected stale_warned_at to stay pinned to the first warning, got %v", got2.StaleWarnedAt)
	}
}

// Scenario E from §8: a completed task backdated past the purge
// threshold is deleted; a running task of the same age is not, because
// purge never touches non-terminal tasks.
func TestScenarioEPurge(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.setFastStaleInterval(t)

	// A negative older_than_days pushes the purge cutoff into the
	// future, so a task that finished "just now" still counts as older
	// than the threshold -- equivalent to backdating finished_at without
	// a store method to do so directly.
	if _, err := e.store.PutConfigEntry(ctx, "purge", "config", "older_than_days: -1\n"); err != nil {
		t.Fatal(err)
	}

	s, err := e.store.CreateSession(ctx, "purge-session", "")
	if err != nil {
		t.Fatal(err)
	}
	q, err := e.store.CreateQueue(ctx, s.Id, "purge-queue", "")
	if err != nil {
		t.Fatal(err)
	}

	done, err := e.lc.Enqueue(ctx, q.Id, "run-bash", "FAST_SCRIPT", 60, "{}")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.lc.Claim(ctx, q.Id, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := e.lc.Complete(ctx, done.Id, "ok", ""); err != nil {
		t.Fatal(err)
	}

	stillRunning, err := e.lc.Enqueue(ctx, q.Id, "run-bash", "FAST_SCRIPT", 60, "{}")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.lc.Claim(ctx, q.Id, ""); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, e)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop(time.Second)

	time.Sleep(200 * time.Millisecond)

	if _, err := e.store.GetTask(ctx, done.Id); err == nil {
		t.Fatal("expected the completed, backdated-past-threshold task to be purged")
	}
	if _, err := e.store.GetTask(ctx, stillRunning.Id); err != nil {
		t.Fatalf("expected the still-running task to survive purge, got err %v", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	w := newTestWatcher(t, e)

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("expected ErrDoubleStarted on second Start")
	}

	started := time.Now()
	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}
	if time.Since(started) > time.Second {
		t.Fatal("expected Stop to complete well within its timeout")
	}

	if err := w.Stop(time.Second); err == nil {
		t.Fatal("expected ErrDoubleStopped on second Stop")
	}
}

// A Watcher started with the default (1h) purge interval must still run
// its first pass immediately, per internal.TimerTask's semantics, so
// config mutations made before Start are visible without waiting an
// hour.
func TestPurgeRunsImmediatelyOnStart(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if _, err := e.store.PutConfigEntry(ctx, "purge", "config", "older_than_days: -1\n"); err != nil {
		t.Fatal(err)
	}

	s, err := e.store.CreateSession(ctx, "immediate-session", "")
	if err != nil {
		t.Fatal(err)
	}
	q, err := e.store.CreateQueue(ctx, s.Id, "immediate-queue", "")
	if err != nil {
		t.Fatal(err)
	}
	task, err := e.lc.Enqueue(ctx, q.Id, "run-bash", "FAST_SCRIPT", 60, "{}")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.lc.Claim(ctx, q.Id, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := e.lc.Complete(ctx, task.Id, "ok", ""); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, e)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop(time.Second)

	time.Sleep(100 * time.Millisecond)

	if _, err := e.store.GetTask(ctx, task.Id); err == nil {
		t.Fatal("expected the first purge pass to have run immediately on Start")
	}
}
