package lifecycle

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/config"
	"github.com/sparkq/sparkq/model"
)

// Lifecycle drives the Task state machine on top of a Store, resolving
// timeouts and tool/task-class warnings through a Config Registry.
type Lifecycle struct {
	store  sparkq.Store
	config *config.Registry
	log    *slog.Logger
}

// New creates a Lifecycle over the given Store and Config Registry.
func New(store sparkq.Store, registry *config.Registry, log *slog.Logger) *Lifecycle {
	return &Lifecycle{store: store, config: registry, log: log}
}

// Enqueue creates a new queued task. tool_name and task_class are
// accepted even if unregistered in the Config Registry -- a warning is
// logged, and the resolved timeout falls back to the built-in default.
func (l *Lifecycle) Enqueue(ctx context.Context, queueId, toolName, taskClass string, timeout int, payload string) (*model.Task, error) {
	if strings.TrimSpace(toolName) == "" {
		return nil, sparkq.NewValidationError("Enqueue", "tool_name", "must be non-empty")
	}
	if strings.TrimSpace(taskClass) == "" {
		return nil, sparkq.NewValidationError("Enqueue", "task_class", "must be non-empty")
	}
	if timeout < 0 {
		return nil, sparkq.NewValidationError("Enqueue", "timeout", "must not be negative")
	}

	l.warnIfUnregistered(ctx, toolName, taskClass)

	resolved, err := l.resolveTimeout(ctx, timeout, taskClass)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		QueueId:   queueId,
		ToolName:  toolName,
		TaskClass: taskClass,
		Payload:   payload,
		Timeout:   resolved,
	}
	return l.store.CreateTask(ctx, task)
}

// Claim returns the oldest queued task in queueId, now running, or nil
// if the queue has no queued task. workerId is accepted for symmetry
// with the source protocol and logged at claim time; it is neither
// persisted nor returned to the caller.
func (l *Lifecycle) Claim(ctx context.Context, queueId, workerId string) (*model.Task, error) {
	task, err := l.store.ClaimQueuedInQueue(ctx, queueId)
	if err != nil {
		return nil, err
	}
	if task != nil {
		l.log.Debug("task claimed", "task_id", task.Id, "worker_id", workerId)
	}
	return task, nil
}

// Complete transitions a running task to succeeded. resultSummary is required.
func (l *Lifecycle) Complete(ctx context.Context, taskId, resultSummary, result string) (*model.Task, error) {
	if strings.TrimSpace(resultSummary) == "" {
		return nil, sparkq.NewValidationError("Complete", "result_summary", "must be non-empty")
	}
	return l.store.MarkRunningToSucceeded(ctx, taskId, resultSummary, result)
}

// Fail transitions a queued or running task to failed. errorMessage is required.
func (l *Lifecycle) Fail(ctx context.Context, taskId, errorMessage, errorType string) (*model.Task, error) {
	if strings.TrimSpace(errorMessage) == "" {
		return nil, sparkq.NewValidationError("Fail", "error_message", "must be non-empty")
	}
	return l.store.MarkToFailed(ctx, taskId, errorMessage, errorType)
}

// Requeue clones a terminal task into a brand new queued task, leaving
// the original untouched for audit.
func (l *Lifecycle) Requeue(ctx context.Context, taskId string) (*model.Task, error) {
	return l.store.CloneForRequeue(ctx, taskId)
}

func (l *Lifecycle) warnIfUnregistered(ctx context.Context, toolName, taskClass string) {
	if tools, err := l.config.Tools(ctx); err == nil {
		known := false
		for _, t := range tools {
			if t.Name == toolName {
				known = true
				break
			}
		}
		if !known {
			l.log.Warn("enqueue with unregistered tool", "tool_name", toolName)
		}
	}
	if classes, err := l.config.TaskClasses(ctx); err == nil {
		known := false
		for _, c := range classes {
			if c.Name == taskClass {
				known = true
				break
			}
		}
		if !known {
			l.log.Warn("enqueue with unregistered task_class", "task_class", taskClass)
		}
	}
}

// resolveTimeout implements the timeout resolution policy of §4.2:
// caller-supplied timeout wins, then the registered task_class, then
// the Config Registry's built-in fallback catalog.
func (l *Lifecycle) resolveTimeout(ctx context.Context, timeout int, taskClass string) (int, error) {
	if timeout > 0 {
		return timeout, nil
	}
	classes, err := l.config.TaskClasses(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range classes {
		if c.Name == taskClass {
			return c.Timeout, nil
		}
	}
	return l.config.ResolveTaskClassTimeout(taskClass), nil
}
