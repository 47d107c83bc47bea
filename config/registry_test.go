package config_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"

	"github.com/sparkq/sparkq/config"
	"github.com/sparkq/sparkq/store/sqlite"
)

func newTestRegistry(t *testing.T, yamlBody string) *config.Registry {
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
	if yamlBody != "" {
		if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	reg, err := config.Open(ctx, store, path, log)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestOpenSeedsBuiltinTaskClasses(t *testing.T) {
	reg := newTestRegistry(t, "")
	ctx := context.Background()

	classes, err := reg.TaskClasses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) == 0 {
		t.Fatal("expected built-in task classes to be seeded")
	}

	purge, err := reg.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if purge.OlderThanDays != 3 {
		t.Fatalf("expected default purge threshold of 3 days, got %d", purge.OlderThanDays)
	}
}

func TestPutOverridesFileLayer(t *testing.T) {
	reg := newTestRegistry(t, "purge:\n  older_than_days: 7\n")
	ctx := context.Background()

	purge, err := reg.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if purge.OlderThanDays != 7 {
		t.Fatalf("expected file layer value 7, got %d", purge.OlderThanDays)
	}

	if _, err := reg.Put(ctx, "purge", "config", "older_than_days: 14\n"); err != nil {
		t.Fatal(err)
	}
	purge, err = reg.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if purge.OlderThanDays != 14 {
		t.Fatalf("expected database layer to win with 14, got %d", purge.OlderThanDays)
	}
}

func TestPutRejectsNonPositivePurgeThreshold(t *testing.T) {
	reg := newTestRegistry(t, "")
	ctx := context.Background()

	if _, err := reg.Put(ctx, "purge", "config", "older_than_days: 0\n"); err == nil {
		t.Fatal("expected validation error for non-positive threshold")
	}
}

func TestPutToolsAllValidatesTaskClass(t *testing.T) {
	reg := newTestRegistry(t, "")
	ctx := context.Background()

	bad := "- name: build\n  task_class: NO_SUCH_CLASS\n  description: runs the build\n"
	if _, err := reg.Put(ctx, "tools", "all", bad); err == nil {
		t.Fatal("expected validation error for unregistered task_class")
	}

	good := "- name: build\n  task_class: FAST_SCRIPT\n  description: runs the build\n"
	if _, err := reg.Put(ctx, "tools", "all", good); err != nil {
		t.Fatal(err)
	}
	tools, err := reg.Tools(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 1 || tools[0].Name != "build" {
		t.Fatalf("expected projection to reflect the new catalog, got %v", tools)
	}
}

func TestDeleteRevertsToFileLayer(t *testing.T) {
	reg := newTestRegistry(t, "purge:\n  older_than_days: 5\n")
	ctx := context.Background()

	if _, err := reg.Put(ctx, "purge", "config", "older_than_days: 14\n"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Delete(ctx, "purge", "config"); err != nil {
		t.Fatal(err)
	}
	purge, err := reg.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if purge.OlderThanDays != 5 {
		t.Fatalf("expected revert to file layer value 5, got %d", purge.OlderThanDays)
	}
}

func TestReloadIsNoOpOnUnchangedFile(t *testing.T) {
	reg := newTestRegistry(t, "purge:\n  older_than_days: 9\n")
	ctx := context.Background()

	before, err := reg.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Reload(); err != nil {
		t.Fatal(err)
	}
	after, err := reg.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Fatalf("expected reload of unchanged file to be a no-op, got %v vs %v", before, after)
	}
}
