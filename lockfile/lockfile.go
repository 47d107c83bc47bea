package lockfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"github.com/sparkq/sparkq"
)

// Lockfile holds an acquired, PID-stamped lock for the lifetime of one
// server process.
type Lockfile struct {
	path string
	fl   *flock.Flock
}

// Acquire tries to take the lock at path, writing the current process's
// PID into the file on success. If another live process already holds
// it, Acquire returns a ConflictError naming the PID found in the file,
// per spec §5 ("a second process starting while a live PID holds the
// lockfile must refuse to start").
func Acquire(path string) (*Lockfile, error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, sparkq.NewInternalError("lockfile.Acquire", err)
	}
	if !locked {
		return nil, sparkq.NewConflictError("lockfile.Acquire", "lockfile", path, "",
			fmt.Sprintf("already held by pid %s", readPID(path)))
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		_ = fl.Unlock()
		return nil, sparkq.NewInternalError("lockfile.Acquire", err)
	}
	return &Lockfile{path: path, fl: fl}, nil
}

// Release unlocks and removes the lockfile. Call it once on clean
// shutdown, typically via defer immediately after Acquire succeeds.
func (l *Lockfile) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return sparkq.NewInternalError("lockfile.Release", err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return sparkq.NewInternalError("lockfile.Release", err)
	}
	return nil
}

// Path returns the filesystem path this lock guards.
func (l *Lockfile) Path() string {
	return l.path
}

func readPID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(data))
}
