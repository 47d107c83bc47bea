package model

import "fmt"

// TaskStatus represents the current lifecycle state of a Task.
//
// The state machine is:
//
//	queued  -> running
//	running -> succeeded
//	running -> failed
//	queued  -> failed   (explicit fail before a claim)
//
// Requeue never mutates an existing row; it creates a new Task in
// TaskQueued. TaskUnknown is reserved as the zero value for filtering
// contexts where "any status" is meant.
type TaskStatus uint8

const (
	// TaskUnknown is the zero value, used to mean "no filter" in List calls.
	TaskUnknown TaskStatus = iota
	TaskQueued
	TaskRunning
	TaskSucceeded
	TaskFailed
)

func taskStatusToString(s TaskStatus) string {
	switch s {
	case TaskQueued:
		return "queued"
	case TaskRunning:
		return "running"
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func taskStatusFromString(s string) (TaskStatus, error) {
	switch s {
	case "queued":
		return TaskQueued, nil
	case "running":
		return TaskRunning, nil
	case "succeeded":
		return TaskSucceeded, nil
	case "failed":
		return TaskFailed, nil
	case "unknown", "":
		return TaskUnknown, nil
	default:
		return 0, fmt.Errorf("unknown task status: %s", s)
	}
}

// ParseTaskStatus converts a string into a TaskStatus, returning an error
// for unrecognized values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	return taskStatusFromString(s)
}

// IsTerminal reports whether s is a terminal task state (succeeded or failed).
func (s TaskStatus) IsTerminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

func (s TaskStatus) String() string {
	return taskStatusToString(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s TaskStatus) MarshalText() ([]byte, error) {
	return []byte(taskStatusToString(s)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TaskStatus) UnmarshalText(text []byte) error {
	v, err := taskStatusFromString(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SessionStatus represents the lifecycle state of a Session.
//
// Session end is advisory: it does not cascade to the session's queues.
type SessionStatus uint8

const (
	SessionUnknown SessionStatus = iota
	SessionActive
	SessionEnded
)

func (s SessionStatus) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = SessionActive
	case "ended":
		*s = SessionEnded
	case "unknown", "":
		*s = SessionUnknown
	default:
		return fmt.Errorf("unknown session status: %s", text)
	}
	return nil
}

// QueueStatus represents the lifecycle state of a Queue.
//
// Enqueueing into a Queue that is not QueueActive fails with a conflict
// (see the Lifecycle package). Archiving or ending a queue never cancels
// its running tasks.
type QueueStatus uint8

const (
	QueueUnknown QueueStatus = iota
	QueueActive
	QueueEnded
	QueueArchived
)

func (s QueueStatus) String() string {
	switch s {
	case QueueActive:
		return "active"
	case QueueEnded:
		return "ended"
	case QueueArchived:
		return "archived"
	default:
		return "unknown"
	}
}

func (s QueueStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *QueueStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = QueueActive
	case "ended":
		*s = QueueEnded
	case "archived":
		*s = QueueArchived
	case "unknown", "":
		*s = QueueUnknown
	default:
		return fmt.Errorf("unknown queue status: %s", text)
	}
	return nil
}
