package sqlite

import (
	"database/sql"
	"strings"
)

// isUniqueViolation reports whether err came from a UNIQUE constraint
// failure. modernc.org/sqlite does not expose a typed error for this, so
// we match on the driver's message the same way the rest of the
// ecosystem does for SQLite.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isAffected(res sql.Result) bool {
	rows, err := res.RowsAffected()
	if err != nil {
		return true
	}
	return rows != 0
}

func getAffected(res sql.Result) int64 {
	ret, err := res.RowsAffected()
	if err != nil {
		return -1
	}
	return ret
}
