package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/config"
	"github.com/sparkq/sparkq/internal"
	"github.com/sparkq/sparkq/lifecycle"
	"github.com/sparkq/sparkq/model"
)

// staleFallbackTimeout is the fallback used by the stale-check pass when
// a running task's own timeout field is missing or invalid (spec §4.4
// step 2). It is distinct from the Lifecycle's own enqueue-time fallback
// (config.fallbackTimeout, 300s): a task that reached running already
// had a valid positive timeout resolved at enqueue time, so this path is
// only reached for data that predates or bypassed that guarantee.
const staleFallbackTimeout = 3600 * time.Second

const (
	defaultStaleInterval = 30 * time.Second
	defaultPurgeInterval = time.Hour
	defaultPurgeDays     = 3
)

// Watcher runs the two unsolicited-write concerns of the core on
// independent timers: a stale-check pass (warn at 1x timeout, auto-fail
// at 2x) and a purge pass (delete old terminal tasks). It is the only
// component in the core that writes without being asked to by a caller.
type Watcher struct {
	internal.LifecycleBase

	store     sparkq.Store
	lifecycle *lifecycle.Lifecycle
	config    *config.Registry
	log       *slog.Logger

	staleTask internal.TimerTask
	purgeTask internal.TimerTask

	staleInterval time.Duration
	purgeInterval time.Duration
}

// New builds a Watcher, resolving its two loop intervals once from the
// Config Registry's queue_runner.config namespace (falling back to the
// spec defaults of 30s/1h if unset or non-positive). Like the teacher's
// CleanWorker, the interval is fixed for the lifetime of the Watcher; a
// runtime config PUT to queue_runner.config takes effect on the next
// process start, not immediately. The purge threshold itself (days) is
// re-read from the registry on every purge pass, so that one takes
// effect without a restart.
func New(ctx context.Context, store sparkq.Store, lc *lifecycle.Lifecycle, registry *config.Registry, log *slog.Logger) (*Watcher, error) {
	cfg, err := registry.QueueRunner(ctx)
	if err != nil {
		return nil, err
	}

	staleInterval := time.Duration(cfg.AutoFailIntervalSeconds) * time.Second
	if staleInterval <= 0 {
		staleInterval = defaultStaleInterval
	}
	purgeInterval := time.Duration(cfg.PurgeIntervalSeconds) * time.Second
	if purgeInterval <= 0 {
		purgeInterval = defaultPurgeInterval
	}

	return &Watcher{
		store:         store,
		lifecycle:     lc,
		config:        registry,
		log:           log,
		staleInterval: staleInterval,
		purgeInterval: purgeInterval,
	}, nil
}

// Start begins both background loops. It returns internal.ErrDoubleStarted
// if the Watcher is already running.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.TryStart(); err != nil {
		return err
	}
	w.staleTask.Start(ctx, w.staleCheck, w.staleInterval)
	w.purgeTask.Start(ctx, w.purge, w.purgeInterval)
	return nil
}

func (w *Watcher) doStop() internal.DoneChan {
	first := w.staleTask.Stop()
	second := w.purgeTask.Stop()
	return internal.Combine(first, second)
}

// Stop cancels both loops and waits up to timeout for them to finish. A
// cancel signal interrupts any sleep and, per spec §4.4, is expected to
// complete within about 1s; callers should pass a timeout at least that
// large. It returns internal.ErrStopTimeout if shutdown does not finish
// in time, and internal.ErrDoubleStopped if the Watcher was not running.
func (w *Watcher) Stop(timeout time.Duration) error {
	return w.TryStop(timeout, w.doStop)
}

// staleCheck is one stale-check pass (spec §4.4): enumerate running
// tasks, classify each by elapsed time against its own timeout, warn
// once at 1x, auto-fail at 2x. A single row's failure is logged and the
// pass continues; this method never returns an error because no caller
// is waiting synchronously on it (it runs off a ticker).
func (w *Watcher) staleCheck(ctx context.Context) {
	tasks, err := w.store.ListRunning(ctx)
	if err != nil {
		w.log.Error("stale-check: list running tasks failed", "err", err)
		return
	}

	now := time.Now()
	for _, t := range tasks {
		if t.StartedAt == nil {
			w.log.Warn("stale-check: running task missing started_at, skipping", "task_id", t.Id)
			continue
		}

		timeout := time.Duration(t.Timeout) * time.Second
		if timeout <= 0 {
			timeout = staleFallbackTimeout
		}
		elapsed := now.Sub(*t.StartedAt)

		switch {
		case elapsed >= 2*timeout:
			w.autoFail(ctx, t.Id, elapsed, timeout)
		case elapsed >= timeout:
			w.warnStale(ctx, t, elapsed, timeout)
		}
	}
}

func (w *Watcher) autoFail(ctx context.Context, taskId string, elapsed, timeout time.Duration) {
	if _, err := w.lifecycle.Fail(ctx, taskId, "Task timeout (auto-failed)", "TIMEOUT"); err != nil {
		w.log.Error("stale-check: auto-fail failed", "task_id", taskId, "err", err)
		return
	}
	w.log.Warn("stale-check: task auto-failed on hard deadline",
		"task_id", taskId, "elapsed", elapsed, "timeout", timeout)
}

func (w *Watcher) warnStale(ctx context.Context, t *model.Task, elapsed, timeout time.Duration) {
	if t.StaleWarnedAt != nil {
		return
	}
	if err := w.store.MarkStaleWarned(ctx, t.Id, time.Now()); err != nil {
		w.log.Error("stale-check: mark stale-warned failed", "task_id", t.Id, "err", err)
		return
	}
	w.log.Warn("stale-check: task exceeded soft deadline",
		"task_id", t.Id, "elapsed", elapsed, "timeout", timeout)
}

// purge is one purge pass (spec §4.4): delete terminal tasks whose
// finished_at is older than the configured threshold. Non-terminal
// tasks are never considered; DeleteTasksOlderThan enforces that at the
// store layer.
func (w *Watcher) purge(ctx context.Context) {
	cfg, err := w.config.Purge(ctx)
	if err != nil {
		w.log.Error("purge: resolve config failed", "err", err)
		return
	}
	days := cfg.OlderThanDays
	if days == 0 {
		days = defaultPurgeDays
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	n, err := w.store.DeleteTasksOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error("purge: delete failed", "cutoff", cutoff, "err", err)
		return
	}
	w.log.Info("purge: deleted old terminal tasks", "count", n, "cutoff", cutoff)
}
