package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// TaskID is the stable per-run identifier assigned to a task plan at
// creation time. It is independent of the task's summary text, which a human
// reviewer may edit before materialization, and it is the sole join key for
// dependency resolution and link creation.
type TaskID string

var (
	// taskIDPattern: "task-" followed by lowercase hex.
	taskIDPattern = regexp.MustCompile(`^task-[0-9a-f]{8}$`)

	maxTaskIDLength = 64
)

// NewTaskID mints a fresh TaskID. IDs are unique within a planning run (and
// in practice globally, being derived from a random UUID).
func NewTaskID() TaskID {
	id := uuid.New()
	return TaskID("task-" + strings.ReplaceAll(id.String(), "-", "")[:8])
}

// ParseTaskID validates a string as a TaskID value object.
func ParseTaskID(value string) (TaskID, error) {
	id := TaskID(value)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks if the task ID is well formed.
func (t TaskID) Validate() error {
	s := string(t)

	if s == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	if len(s) > maxTaskIDLength {
		return fmt.Errorf("task ID %q exceeds maximum length of %d characters", s, maxTaskIDLength)
	}

	if !taskIDPattern.MatchString(s) {
		return fmt.Errorf("task ID %q must have the form task-<8 hex chars>", s)
	}

	return nil
}

// String returns the string representation.
func (t TaskID) String() string {
	return string(t)
}

// Equals checks if this task ID equals another.
func (t TaskID) Equals(other TaskID) bool {
	return t == other
}

// IsTaskIDRef reports whether a free-text dependency reference already looks
// like a TaskID rather than a summary string or legacy positional token.
func IsTaskIDRef(s string) bool {
	return taskIDPattern.MatchString(s)
}
