package config

// FileConfig mirrors the structured document described in §6: a
// well-known path with recognized top-level keys. Relative paths in
// ScriptDirs/ProjectScriptDirs resolve against the config file's
// directory; that resolution is the caller's responsibility, not the
// Registry's.
type FileConfig struct {
	Project           ProjectConfig          `mapstructure:"project"`
	Server            ServerConfig           `mapstructure:"server"`
	Database          DatabaseConfig         `mapstructure:"database"`
	Purge             PurgeConfig            `mapstructure:"purge"`
	QueueRunner       QueueRunnerConfig      `mapstructure:"queue_runner"`
	ScriptDirs        []string               `mapstructure:"script_dirs"`
	ProjectScriptDirs []string               `mapstructure:"project_script_dirs"`
	TaskClasses       map[string]TaskClassConfig `mapstructure:"task_classes"`
	Tools             map[string]ToolConfig      `mapstructure:"tools"`
	Features          map[string]bool        `mapstructure:"features"`
	Defaults          DefaultsConfig         `mapstructure:"defaults"`
	UI                UIConfig               `mapstructure:"ui"`
}

type ProjectConfig struct {
	Name     string `mapstructure:"name"`
	RepoPath string `mapstructure:"repo_path"`
}

// ServerConfig is read only from the file and built-in layers: the bind
// address cannot be changed by a runtime PUT without a restart.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig is read only from the file and built-in layers, same
// reasoning as ServerConfig.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PurgeConfig is namespace "purge", key "config" in the database layer.
type PurgeConfig struct {
	OlderThanDays int `mapstructure:"older_than_days" yaml:"older_than_days"`
}

// QueueRunnerConfig is namespace "queue_runner", key "config".
type QueueRunnerConfig struct {
	AutoFailIntervalSeconds int `mapstructure:"auto_fail_interval_seconds" yaml:"auto_fail_interval_seconds"`
	PurgeIntervalSeconds    int `mapstructure:"purge_interval_seconds" yaml:"purge_interval_seconds"`
}

type TaskClassConfig struct {
	Timeout     int    `mapstructure:"timeout" yaml:"timeout"`
	Description string `mapstructure:"description" yaml:"description"`
}

type ToolConfig struct {
	TaskClass   string `mapstructure:"task_class" yaml:"task_class"`
	Description string `mapstructure:"description" yaml:"description"`
}

// DefaultsConfig is namespace "defaults", key "queue".
type DefaultsConfig struct {
	Queue QueueDefaultsConfig `mapstructure:"queue"`
}

type QueueDefaultsConfig struct {
	Instructions string `mapstructure:"instructions" yaml:"instructions"`
}

// UIConfig is namespace "ui", key "build_id".
type UIConfig struct {
	BuildID string `mapstructure:"build_id" yaml:"build_id"`
}
