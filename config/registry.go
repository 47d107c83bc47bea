package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

const (
	configEnvVar          = "SPARKQ_CONFIG"
	defaultConfigFileName = "sparkq.yaml"
)

// ResolveConfigPath implements the search order from §4.5/§6: an
// explicit SPARKQ_CONFIG environment variable wins, then a file in the
// current directory, then a fallback under the project's repo root.
func ResolveConfigPath(repoPath string) string {
	if p := os.Getenv(configEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFileName); err == nil {
		return defaultConfigFileName
	}
	return filepath.Join(repoPath, defaultConfigFileName)
}

// Registry is the Config Registry: the layered lookup described in
// §4.5, backed by a Store for the database layer and viper for the file
// layer.
type Registry struct {
	mu    sync.RWMutex
	store sparkq.Store
	v     *viper.Viper
	path  string
	file  FileConfig
	log   *slog.Logger
}

// Open loads the file layer from path, seeds the database layer on a
// first-ever startup, and returns a ready Registry. A missing file at
// path is not an error: the file layer is simply all defaults.
func Open(ctx context.Context, store sparkq.Store, path string, log *slog.Logger) (*Registry, error) {
	r := &Registry{store: store, path: path, log: log}
	if err := r.loadFile(); err != nil {
		return nil, err
	}
	if err := r.seed(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) loadFile() error {
	v := viper.New()
	v.SetConfigFile(r.path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("sparkq: config: read %s: %w", r.path, err)
		}
		r.log.Warn("config file not found, using defaults only", "path", r.path)
	}

	var file FileConfig
	if err := v.Unmarshal(&file); err != nil {
		return fmt.Errorf("sparkq: config: decode %s: %w", r.path, err)
	}

	r.mu.Lock()
	r.v = v
	r.file = file
	r.mu.Unlock()
	return nil
}

// Reload re-reads the file layer without restarting the process.
// Subsequent reads observe the new values; an unchanged file on disk
// produces an unchanged result.
func (r *Registry) Reload() error {
	return r.loadFile()
}

// Server returns the file/built-in bind address. It cannot be changed
// by a database mutation: binding takes effect only at process start.
func (r *Registry) Server() ServerConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.Server
}

// Database returns the file/built-in database path.
func (r *Registry) Database() DatabaseConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.Database
}

// Purge resolves purge.config, database layer first.
func (r *Registry) Purge(ctx context.Context) (PurgeConfig, error) {
	var cfg PurgeConfig
	found, err := r.readEntry(ctx, "purge", "config", &cfg)
	if err != nil {
		return PurgeConfig{}, err
	}
	if found {
		return cfg, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.Purge, nil
}

// QueueRunner resolves queue_runner.config, database layer first.
func (r *Registry) QueueRunner(ctx context.Context) (QueueRunnerConfig, error) {
	var cfg QueueRunnerConfig
	found, err := r.readEntry(ctx, "queue_runner", "config", &cfg)
	if err != nil {
		return QueueRunnerConfig{}, err
	}
	if found {
		return cfg, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.QueueRunner, nil
}

// Features resolves features.flags, database layer first.
func (r *Registry) Features(ctx context.Context) (map[string]bool, error) {
	var flags map[string]bool
	found, err := r.readEntry(ctx, "features", "flags", &flags)
	if err != nil {
		return nil, err
	}
	if found {
		return flags, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.Features, nil
}

// QueueDefaults resolves defaults.queue, database layer first.
func (r *Registry) QueueDefaults(ctx context.Context) (QueueDefaultsConfig, error) {
	var cfg QueueDefaultsConfig
	found, err := r.readEntry(ctx, "defaults", "queue", &cfg)
	if err != nil {
		return QueueDefaultsConfig{}, err
	}
	if found {
		return cfg, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.Defaults.Queue, nil
}

// BuildID resolves ui.build_id, database layer first.
func (r *Registry) BuildID(ctx context.Context) (string, error) {
	var id string
	found, err := r.readEntry(ctx, "ui", "build_id", &id)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.UI.BuildID, nil
}

// Tools returns the current tool catalog. It reads the tools projection
// table directly: that table is kept consistent with the tools.all
// config entry by Put/Delete, so it is always the authoritative,
// query-ready view (§4.5 Config projections).
func (r *Registry) Tools(ctx context.Context) ([]*model.Tool, error) {
	return r.store.ListTools(ctx)
}

// TaskClasses returns the current task class catalog, same reasoning as Tools.
func (r *Registry) TaskClasses(ctx context.Context) ([]*model.TaskClass, error) {
	return r.store.ListTaskClasses(ctx)
}

// ResolveTaskClassTimeout implements step (3)-(4) of the Lifecycle's
// timeout resolution policy (§4.2): it is consulted after the caller's
// explicit timeout and the registered task_class have both failed to
// yield a value.
func (r *Registry) ResolveTaskClassTimeout(name string) int {
	if c, ok := builtinTaskClasses[name]; ok {
		return c.Timeout
	}
	return fallbackTimeout
}

// Put writes a database config entry after validating it, and keeps the
// tools/task_classes projection tables atomically in sync when the
// namespace is tools.all or task_classes.all.
func (r *Registry) Put(ctx context.Context, namespace, key, value string) (*model.ConfigEntry, error) {
	if err := r.Validate(ctx, namespace, key, value); err != nil {
		return nil, err
	}
	entry, err := r.store.PutConfigEntry(ctx, namespace, key, value)
	if err != nil {
		return nil, err
	}
	if err := r.syncProjection(ctx, namespace, key, value); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes a database config entry, reverting that namespace to
// its file-or-default value. When the namespace is tools.all or
// task_classes.all, the projection tables are rebuilt from the file
// layer: tools is left empty if the file layer has none, and
// task_classes always keeps the built-in classes merged under the
// file's.
func (r *Registry) Delete(ctx context.Context, namespace, key string) error {
	if err := r.store.DeleteConfigEntry(ctx, namespace, key); err != nil {
		return err
	}
	if namespace == "tools" && key == "all" {
		return r.syncToolsFromFile(ctx)
	}
	if namespace == "task_classes" && key == "all" {
		return r.syncTaskClassesFromFile(ctx)
	}
	return nil
}

// Validate checks a proposed config mutation against cross-entity
// constraints without persisting it.
func (r *Registry) Validate(ctx context.Context, namespace, key, value string) error {
	switch {
	case namespace == "purge" && key == "config":
		var cfg PurgeConfig
		if err := yaml.Unmarshal([]byte(value), &cfg); err != nil {
			return sparkq.NewValidationError("Validate", "value", err.Error())
		}
		if cfg.OlderThanDays <= 0 {
			return sparkq.NewValidationError("Validate", "older_than_days", "must be positive")
		}
	case namespace == "queue_runner" && key == "config":
		var cfg QueueRunnerConfig
		if err := yaml.Unmarshal([]byte(value), &cfg); err != nil {
			return sparkq.NewValidationError("Validate", "value", err.Error())
		}
		if cfg.AutoFailIntervalSeconds <= 0 {
			return sparkq.NewValidationError("Validate", "auto_fail_interval_seconds", "must be positive")
		}
	case namespace == "tools" && key == "all":
		tools, err := decodeTools(value)
		if err != nil {
			return sparkq.NewValidationError("Validate", "value", err.Error())
		}
		classes, err := r.store.ListTaskClasses(ctx)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(classes))
		for _, c := range classes {
			known[c.Name] = true
		}
		for _, t := range tools {
			if !known[t.TaskClass] {
				return sparkq.NewValidationError("Validate", "task_class",
					fmt.Sprintf("tool %q references unregistered task_class %q", t.Name, t.TaskClass))
			}
		}
	case namespace == "task_classes" && key == "all":
		classes, err := decodeTaskClasses(value)
		if err != nil {
			return sparkq.NewValidationError("Validate", "value", err.Error())
		}
		tools, err := r.store.ListTools(ctx)
		if err != nil {
			return err
		}
		kept := make(map[string]bool, len(classes))
		for _, c := range classes {
			kept[c.Name] = true
		}
		for _, t := range tools {
			if !kept[t.TaskClass] {
				return sparkq.NewConflictError("Validate", "task_class", t.TaskClass, "",
					fmt.Sprintf("task_class %q is still referenced by tool %q", t.TaskClass, t.Name))
			}
		}
	}
	return nil
}

func (r *Registry) syncProjection(ctx context.Context, namespace, key, value string) error {
	switch {
	case namespace == "tools" && key == "all":
		tools, err := decodeTools(value)
		if err != nil {
			return sparkq.NewValidationError("Put", "value", err.Error())
		}
		return r.store.ReplaceTools(ctx, tools)
	case namespace == "task_classes" && key == "all":
		classes, err := decodeTaskClasses(value)
		if err != nil {
			return sparkq.NewValidationError("Put", "value", err.Error())
		}
		return r.store.ReplaceTaskClasses(ctx, classes)
	}
	return nil
}

func (r *Registry) syncToolsFromFile(ctx context.Context) error {
	r.mu.RLock()
	fileTools := r.file.Tools
	r.mu.RUnlock()
	tools := make([]*model.Tool, 0, len(fileTools))
	for name, t := range fileTools {
		tools = append(tools, &model.Tool{Name: name, TaskClass: t.TaskClass, Description: t.Description})
	}
	return r.store.ReplaceTools(ctx, tools)
}

func (r *Registry) syncTaskClassesFromFile(ctx context.Context) error {
	r.mu.RLock()
	fileClasses := r.file.TaskClasses
	r.mu.RUnlock()
	merged := mergeBuiltinTaskClasses(fileClasses)
	classes := make([]*model.TaskClass, 0, len(merged))
	for name, c := range merged {
		classes = append(classes, &model.TaskClass{Name: name, Timeout: c.Timeout, Description: c.Description})
	}
	return r.store.ReplaceTaskClasses(ctx, classes)
}

// seed performs the one-time, per-namespace, non-destructive population
// described in §4.5: it never overwrites an existing entry, and checks
// each namespace independently rather than gating all seeding behind a
// single "is the config table empty" check, so a stray entry in one
// namespace never blocks seeding the others.
func (r *Registry) seed(ctx context.Context) error {
	r.mu.RLock()
	file := r.file
	r.mu.RUnlock()

	if err := r.seedEntryIfAbsent(ctx, "purge", "config", file.Purge); err != nil {
		return err
	}
	if err := r.seedEntryIfAbsent(ctx, "queue_runner", "config", file.QueueRunner); err != nil {
		return err
	}
	if err := r.seedEntryIfAbsent(ctx, "features", "flags", file.Features); err != nil {
		return err
	}
	if err := r.seedEntryIfAbsent(ctx, "defaults", "queue", file.Defaults.Queue); err != nil {
		return err
	}
	if err := r.seedEntryIfAbsent(ctx, "ui", "build_id", file.UI.BuildID); err != nil {
		return err
	}

	tools, err := r.store.ListTools(ctx)
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		if err := r.syncToolsFromFile(ctx); err != nil {
			return err
		}
	}

	classes, err := r.store.ListTaskClasses(ctx)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		if err := r.syncTaskClassesFromFile(ctx); err != nil {
			return err
		}
	}

	return r.store.SeedPromptsIfEmpty(ctx, builtinPrompts())
}

func (r *Registry) seedEntryIfAbsent(ctx context.Context, namespace, key string, v interface{}) error {
	_, err := r.store.GetConfigEntry(ctx, namespace, key)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}
	blob, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("sparkq: config: seed %s.%s: %w", namespace, key, err)
	}
	_, err = r.store.PutConfigEntry(ctx, namespace, key, string(blob))
	return err
}

// readEntry looks up a database config entry and decodes its YAML value
// into dst. It reports found=false (no error) when the entry does not
// exist, so the caller can fall through to the file/default layer.
func (r *Registry) readEntry(ctx context.Context, namespace, key string, dst interface{}) (bool, error) {
	entry, err := r.store.GetConfigEntry(ctx, namespace, key)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := yaml.Unmarshal([]byte(entry.Value), dst); err != nil {
		return false, sparkq.NewInternalError("readEntry", err)
	}
	return true, nil
}

func decodeTools(value string) ([]*model.Tool, error) {
	var tools []*model.Tool
	if err := yaml.Unmarshal([]byte(value), &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

func decodeTaskClasses(value string) ([]*model.TaskClass, error) {
	var classes []*model.TaskClass
	if err := yaml.Unmarshal([]byte(value), &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func isNotFound(err error) bool {
	var nf *sparkq.NotFoundError
	return errors.As(err, &nf)
}
