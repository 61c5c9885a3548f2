package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task status constants
const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress" // reserved, nothing transitions into it yet
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// DefaultDueIn is added to the posting time when a task has no due date.
const DefaultDueIn = 24 * time.Hour

// Task is a unit of work posted by a creator and completed by a completer.
//
// DateCompleted and CompletionComment are set iff Status is completed.
// CompleterID may be set while the task is still open, which means the task
// has been claimed by that completer.
type Task struct {
	ID                uuid.UUID  `db:"id"`
	Title             string     `db:"title"`
	Content           string     `db:"content"`
	DatePosted        time.Time  `db:"date_posted"`
	DueDate           time.Time  `db:"due_date"`
	AuthorID          uuid.UUID  `db:"author_id"`
	Status            TaskStatus `db:"status"`
	CompleterID       *uuid.UUID `db:"completer_id"`
	DateCompleted     *time.Time `db:"date_completed"`
	CompletionComment *string    `db:"completion_comment"`

	// Filled by joins on read.
	AuthorUsername    string  `db:"author_username"`
	CompleterUsername *string `db:"completer_username"`
}

// IsOpen reports whether the task can still be completed.
func (t *Task) IsOpen() bool {
	return t.Status == TaskStatusOpen
}

// IsClaimedBy reports whether the task is assigned to the given user.
func (t *Task) IsClaimedBy(userID uuid.UUID) bool {
	return t.CompleterID != nil && *t.CompleterID == userID
}
