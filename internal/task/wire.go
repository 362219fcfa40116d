package task

import (
	"encoding/json"
	"time"
)

// Update is a task status frame delivered over the push channel. The backend
// emits the full record on every change, so an Update replaces whatever the
// store held for the same ID.
type Update struct {
	TaskID    string          `json:"task_id"`
	Status    Status          `json:"status"`
	Progress  int             `json:"progress,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Task converts the frame into the stored shape.
func (u Update) Task() Task {
	return Task{
		ID:        u.TaskID,
		Status:    u.Status,
		Progress:  u.Progress,
		Error:     u.Error,
		Result:    u.Result,
		Timestamp: u.Timestamp,
	}
}

// Record is the REST representation of a task, as returned by the list, get
// and submit endpoints.
type Record struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      Status          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Progress    int             `json:"progress"`
}

// Task maps the REST field names onto the stored shape: id becomes the task
// ID and created_at becomes the ordering timestamp.
func (r Record) Task() Task {
	return Task{
		ID:        r.ID,
		Name:      r.Name,
		Status:    r.Status,
		Progress:  r.Progress,
		Error:     r.Error,
		Result:    r.Result,
		Timestamp: r.CreatedAt,
	}
}

// ListResponse is the body of GET /api/v1/tasks.
type ListResponse struct {
	Tasks []Record `json:"tasks"`
	Total int      `json:"total"`
}

// SubmitRequest is the body of POST /api/v1/tasks.
type SubmitRequest struct {
	Name    string      `json:"name" validate:"required"`
	Payload interface{} `json:"payload"`
	Timeout int         `json:"timeout,omitempty" validate:"gte=0"`
}

// BackendStats is the body of GET /api/v1/tasks/status/stats.
type BackendStats struct {
	Stats map[Status]int `json:"stats"`
}
