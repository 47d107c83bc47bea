package sparkq

import "fmt"

// ValidationError indicates malformed input: an empty required field, an
// invalid enum value, a non-positive timeout, or similar input-shape
// problems caught before anything is persisted.
type ValidationError struct {
	Op      string // operation attempted, e.g. "Complete"
	Field   string // offending field, if applicable
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("sparkq: validation: %s: %s: %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("sparkq: validation: %s: %s", e.Op, e.Message)
}

// NewValidationError constructs a ValidationError for the given operation.
func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Field: field, Message: message}
}

// NotFoundError indicates that a referenced session, queue, task, or
// config entry does not exist.
type NotFoundError struct {
	Op     string
	Entity string // e.g. "queue"
	Id     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sparkq: not found: %s: %s %s", e.Op, e.Entity, e.Id)
}

// NewNotFoundError constructs a NotFoundError for the given entity kind and id.
func NewNotFoundError(op, entity, id string) error {
	return &NotFoundError{Op: op, Entity: entity, Id: id}
}

// ConflictError indicates an illegal state transition, a uniqueness
// collision, a queue that is not active, or a task not in the status
// required for the requested transition.
type ConflictError struct {
	Op      string
	Entity  string
	Id      string
	Status  string // current status of Entity/Id, if applicable
	Message string
}

func (e *ConflictError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("sparkq: conflict: %s: %s %s is %s: %s", e.Op, e.Entity, e.Id, e.Status, e.Message)
	}
	return fmt.Sprintf("sparkq: conflict: %s: %s", e.Op, e.Message)
}

// NewConflictError constructs a ConflictError naming the current status
// of the offending entity and the attempted action.
func NewConflictError(op, entity, id, status, message string) error {
	return &ConflictError{Op: op, Entity: entity, Id: id, Status: status, Message: message}
}

// InternalError wraps an unexpected failure (typically from the Store)
// that does not fit the other three kinds. It never exposes a naked
// stack trace to the adapter; Cause carries the underlying error for
// errors.Unwrap.
type InternalError struct {
	Op    string
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("sparkq: internal: %s: %v", e.Op, e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError wraps cause as an InternalError for op. It returns nil
// if cause is nil, so it is safe to call unconditionally at the tail of
// a Store call.
func NewInternalError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &InternalError{Op: op, Cause: cause}
}
