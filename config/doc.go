// Package config implements the Config Registry: a layered lookup of
// runtime parameters from database entries, a file-backed document, and
// built-in defaults.
//
// Three tiers resolve highest-priority-wins: the database config table
// (runtime mutations via the API), the file layer loaded with
// github.com/spf13/viper, and compiled-in defaults. Server bind address
// and database path are file/default only; a database mutation never
// changes them, since changing a bind address requires a restart.
// Everything else consults the database first.
package config
