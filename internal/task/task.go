package task

import (
	"encoding/json"
	"time"
)

// Status represents the current state of a task as reported by the backend.
type Status string

// Possible task status values
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Known reports whether s is one of the statuses the backend documents.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are expected from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is the last-known state of one backend task.
type Task struct {
	ID        string          `json:"task_id"`
	Name      string          `json:"name,omitempty"`
	Status    Status          `json:"status"`
	Progress  int             `json:"progress"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ClampedProgress returns Progress bounded to 0..100 for display.
func (t Task) ClampedProgress() int {
	switch {
	case t.Progress < 0:
		return 0
	case t.Progress > 100:
		return 100
	default:
		return t.Progress
	}
}
