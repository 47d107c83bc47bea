package config

import (
	"github.com/spf13/viper"

	"github.com/sparkq/sparkq/model"
)

// setDefaults installs the compiled-in bottom layer. Every value here is
// overridden by the file layer, which is in turn overridden by the
// database layer for the namespaces that support runtime mutation.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "./sparkq.db")

	v.SetDefault("purge.older_than_days", 3)

	v.SetDefault("queue_runner.auto_fail_interval_seconds", 30)
	v.SetDefault("queue_runner.purge_interval_seconds", 3600)

	v.SetDefault("defaults.queue.instructions", "")

	v.SetDefault("ui.build_id", "dev")
}

// builtinTaskClasses is the built-in fallback timeout catalog from the
// Lifecycle's timeout resolution policy (§4.2): used when a task_class
// is neither registered nor overridden by the file or database layers.
// Two concrete source configurations disagree on these numbers; the spec
// leaves the literal values unresolved and asks only that the resolution
// rule -- caller timeout, then registered task_class, then this
// fallback, then a flat 300s -- be honored.
var builtinTaskClasses = map[string]TaskClassConfig{
	"FAST_SCRIPT":   {Timeout: 120, Description: "short-lived shell scripts"},
	"MEDIUM_SCRIPT": {Timeout: 600, Description: "longer shell or build scripts"},
	"LLM_LITE":      {Timeout: 480, Description: "small/cheap model calls"},
	"LLM_HEAVY":     {Timeout: 1200, Description: "large model calls or agent loops"},
}

// fallbackTimeout is step (4) of the timeout resolution policy: used
// when task_class is neither supplied with an explicit timeout, nor
// registered, nor present in builtinTaskClasses.
const fallbackTimeout = 300

func mergeBuiltinTaskClasses(file map[string]TaskClassConfig) map[string]TaskClassConfig {
	merged := make(map[string]TaskClassConfig, len(builtinTaskClasses)+len(file))
	for name, c := range builtinTaskClasses {
		merged[name] = c
	}
	for name, c := range file {
		merged[name] = c
	}
	return merged
}

func builtinPrompts() []*model.Prompt {
	return []*model.Prompt{
		{Name: "default", Body: "You are a careful, incremental engineer working inside this repository. Prefer small, reviewable changes."},
	}
}
