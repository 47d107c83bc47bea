package model

import "time"

// ConfigEntry is a single (namespace, key) -> value record in the
// Config Registry's database-backed tier (layer 1, see spec §4.5).
// Value is a structured blob, stored as YAML text; the Config Registry
// decodes it into a typed shape per namespace.
type ConfigEntry struct {
	Namespace string
	Key       string
	Value     string // YAML-encoded
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tool is a denormalized projection of a tools.all config entry,
// maintained for direct query convenience. Its invariant is that it
// stays consistent with the config table after any mutation (spec §4.5).
type Tool struct {
	Name        string `yaml:"name"`
	TaskClass   string `yaml:"task_class"`
	Description string `yaml:"description"`
}

// TaskClass is a denormalized projection of a task_classes.all config
// entry: a named timeout band supplying default deadlines for tasks
// whose tools belong to it.
type TaskClass struct {
	Name        string `yaml:"name"`
	Timeout     int    `yaml:"timeout"` // seconds
	Description string `yaml:"description"`
}

// Prompt is a denormalized projection of the prompt catalog, seeded once
// from built-in defaults and otherwise opaque to the core (the
// prompt-template catalog itself is an external collaborator).
type Prompt struct {
	Name string `yaml:"name"`
	Body string `yaml:"body"`
}
