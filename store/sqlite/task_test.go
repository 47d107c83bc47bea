package sqlite_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

func setupQueue(t *testing.T, store interface {
	CreateSession(ctx context.Context, name, description string) (*model.Session, error)
	CreateQueue(ctx context.Context, sessionId, name, instructions string) (*model.Queue, error)
}, sessionName, queueName string) *model.Queue {
	t.Helper()
	ctx := context.Background()
	s, err := store.CreateSession(ctx, sessionName, "")
	if err != nil {
		t.Fatal(err)
	}
	q, err := store.CreateQueue(ctx, s.Id, queueName, "")
	if err != nil {
		t.Fatal(err)
	}
	return q
}

func TestClaimQueuedInQueueFIFO(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q := setupQueue(t, store, "fifo-session", "fifo-queue")

	var ids []string
	for i := 0; i < 3; i++ {
		task := &model.Task{QueueId: q.Id, ToolName: "build", TaskClass: "FAST_SCRIPT", Payload: "{}", Timeout: 120}
		created, err := store.CreateTask(ctx, task)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, created.Id)
	}

	claimed, err := store.ClaimQueuedInQueue(ctx, q.Id)
	if err != nil {
		t.Fatal(err)
	}
	if claimed == nil || claimed.Id != ids[0] {
		t.Fatalf("expected to claim %s first, got %v", ids[0], claimed)
	}
	if claimed.Status != model.TaskRunning {
		t.Fatalf("expected Running, got %v", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Fatalf("expected Attempts=1, got %d", claimed.Attempts)
	}
	if claimed.StartedAt == nil || claimed.ClaimedAt == nil {
		t.Fatal("expected StartedAt and ClaimedAt to be set")
	}
}

func TestClaimQueuedInQueueEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q := setupQueue(t, store, "empty-session", "empty-queue")

	claimed, err := store.ClaimQueuedInQueue(ctx, q.Id)
	if err != nil {
		t.Fatal(err)
	}
	if claimed != nil {
		t.Fatalf("expected no task to claim, got %v", claimed)
	}
}

func TestMarkRunningToSucceededRejectsQueued(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q := setupQueue(t, store, "succeed-session", "succeed-queue")

	task := &model.Task{QueueId: q.Id, ToolName: "build", TaskClass: "FAST_SCRIPT", Payload: "{}", Timeout: 120}
	created, err := store.CreateTask(ctx, task)
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.MarkRunningToSucceeded(ctx, created.Id, "ok", "done")
	var cferr *sparkq.ConflictError
	if !errors.As(err, &cferr) {
		t.Fatalf("expected ConflictError, got %T: %v", err, err)
	}
}

func TestMarkToFailedComposesError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q := setupQueue(t, store, "fail-session", "fail-queue")

	task := &model.Task{QueueId: q.Id, ToolName: "build", TaskClass: "FAST_SCRIPT", Payload: "{}", Timeout: 120}
	created, err := store.CreateTask(ctx, task)
	if err != nil {
		t.Fatal(err)
	}

	failed, err := store.MarkToFailed(ctx, created.Id, "tool exited non-zero", "ToolError")
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != model.TaskFailed {
		t.Fatalf("expected Failed, got %v", failed.Status)
	}
	if !strings.HasPrefix(failed.Error, "ToolError: ") {
		t.Fatalf("expected composed error, got %q", failed.Error)
	}
	if failed.ErrorMessage != "tool exited non-zero" {
		t.Fatalf("expected raw message preserved, got %q", failed.ErrorMessage)
	}
}

func TestCloneForRequeueOnlyTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q := setupQueue(t, store, "requeue-session", "requeue-queue")

	task := &model.Task{QueueId: q.Id, ToolName: "build", TaskClass: "FAST_SCRIPT", Payload: `{"x":1}`, Timeout: 120}
	created, err := store.CreateTask(ctx, task)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.CloneForRequeue(ctx, created.Id); err == nil {
		t.Fatal("expected requeue of a queued task to fail")
	}

	failed, err := store.MarkToFailed(ctx, created.Id, "boom", "")
	if err != nil {
		t.Fatal(err)
	}

	clone, err := store.CloneForRequeue(ctx, failed.Id)
	if err != nil {
		t.Fatal(err)
	}
	if clone.Id == failed.Id {
		t.Fatal("expected a new task id")
	}
	if clone.Status != model.TaskQueued {
		t.Fatalf("expected Queued, got %v", clone.Status)
	}
	if clone.Payload != failed.Payload || clone.ToolName != failed.ToolName || clone.TaskClass != failed.TaskClass {
		t.Fatal("expected clone to preserve tool_name/task_class/payload")
	}
	if clone.Attempts != 0 {
		t.Fatalf("expected fresh attempts counter, got %d", clone.Attempts)
	}

	original, err := store.GetTask(ctx, failed.Id)
	if err != nil {
		t.Fatal(err)
	}
	if original.Status != model.TaskFailed {
		t.Fatal("expected original task to remain untouched")
	}
}

func TestMarkStaleWarnedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q := setupQueue(t, store, "stale-session", "stale-queue")

	task := &model.Task{QueueId: q.Id, ToolName: "build", TaskClass: "FAST_SCRIPT", Payload: "{}", Timeout: 120}
	created, err := store.CreateTask(ctx, task)
	if err != nil {
		t.Fatal(err)
	}
	claimed, err := store.ClaimQueuedInQueue(ctx, q.Id)
	if err != nil {
		t.Fatal(err)
	}
	if claimed.Id != created.Id {
		t.Fatal("expected to claim the task just created")
	}

	first := claimed.StartedAt.Add(0)
	if err := store.MarkStaleWarned(ctx, created.Id, first); err != nil {
		t.Fatal(err)
	}
	again := first.Add(1)
	if err := store.MarkStaleWarned(ctx, created.Id, again); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetTask(ctx, created.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got.StaleWarnedAt == nil || !got.StaleWarnedAt.Equal(first) {
		t.Fatalf("expected stale_warned_at to stay pinned to the first warning, got %v", got.StaleWarnedAt)
	}
}

func TestListRunningAndDeleteTasksOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q := setupQueue(t, store, "list-session", "list-queue")

	task := &model.Task{QueueId: q.Id, ToolName: "build", TaskClass: "FAST_SCRIPT", Payload: "{}", Timeout: 120}
	created, err := store.CreateTask(ctx, task)
	if err != nil {
		t.Fatal(err)
	}
	claimed, err := store.ClaimQueuedInQueue(ctx, q.Id)
	if err != nil {
		t.Fatal(err)
	}
	if claimed.Id != created.Id {
		t.Fatal("expected to claim the task just created")
	}

	running, err := store.ListRunning(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(running) != 1 || running[0].Id != created.Id {
		t.Fatalf("expected exactly the claimed task in ListRunning, got %v", running)
	}

	if _, err := store.MarkRunningToSucceeded(ctx, created.Id, "ok", "done"); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.DeleteTasksOlderThan(ctx, claimed.StartedAt.AddDate(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 task purged, got %d", deleted)
	}
	if _, err := store.GetTask(ctx, created.Id); err == nil {
		t.Fatal("expected purged task to be gone")
	}
}
