package push

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/taskdash/internal/events"
)

// systemTaskID is the task_id the backend uses for its greeting frame.
const systemTaskID = "system"

// frame holds the fields used to classify an incoming message.
type frame struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	TaskID  string          `json:"task_id"`
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result"`
}

// Classify decodes a raw frame and decides which kind of event it is.
// It returns an error wrapping ErrMalformedFrame for anything that is not a
// JSON object matching a known shape.
func Classify(data []byte) (events.Kind, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch {
	case f.Type == "connection", f.TaskID == systemTaskID:
		return events.KindConnection, nil
	case f.TaskID != "" && f.Status != "":
		return events.KindTaskUpdate, nil
	default:
		return "", fmt.Errorf("%w: missing task_id or status", ErrMalformedFrame)
	}
}

// NoticeMessage extracts the human-readable text of a connection notice.
func NoticeMessage(payload []byte) string {
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return ""
	}
	if f.Message != "" {
		return f.Message
	}
	var result struct {
		Message string `json:"message"`
	}
	if len(f.Result) > 0 && json.Unmarshal(f.Result, &result) == nil {
		return result.Message
	}
	return ""
}
