package sqlite

import (
	"github.com/uptrace/bun"
)

// Store implements sparkq.Store using a SQLite database accessed
// through github.com/uptrace/bun.
//
// The provided *bun.DB must be opened in WAL mode with a busy_timeout
// configured (see doc.go) and must have had InitDB run against it before
// use. Store itself does not manage connection lifecycle.
type Store struct {
	db *bun.DB
}

// New creates a new SQLite-backed Store.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}
