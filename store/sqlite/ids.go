package sqlite

import "github.com/google/uuid"

// Entity-prefixed ID generation. The Store generates every ID; callers
// never assemble one themselves (spec §4.1).
const (
	prefixProject = "prj"
	prefixSession = "ses"
	prefixQueue   = "que"
	prefixTask    = "tsk"
	prefixPrompt  = "prm"
)

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}
