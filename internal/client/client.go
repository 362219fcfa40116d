package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdash/internal/task"
)

// SessionHeader carries an identifier that is stable for the lifetime of a
// Client, so backend logs can group one dashboard's calls.
const SessionHeader = "X-Dashboard-Session"

// maxErrorBody caps how much of a rejected response ends up in an error.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger

	// HTTPClient overrides the default client; Timeout is ignored when set
	HTTPClient *http.Client
}

// Client calls the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  string
	logger     *slog.Logger
}

// New creates a Client for the backend at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		sessionID:  uuid.NewString(),
		logger:     logger.With("component", "backend_client"),
	}, nil
}

// SessionID returns the identifier sent with every request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// SubmitTask calls POST /api/v1/tasks and returns the created task record.
func (c *Client) SubmitTask(ctx context.Context, req task.SubmitRequest) (task.Record, error) {
	var rec task.Record
	if err := c.do(ctx, "submit task", http.MethodPost, "/api/v1/tasks", req, &rec); err != nil {
		return task.Record{}, err
	}
	return rec, nil
}

// CancelTask calls DELETE /api/v1/tasks/{id}. Success means the backend
// accepted the request; the status change arrives separately.
func (c *Client) CancelTask(ctx context.Context, id string) error {
	return c.do(ctx, "cancel task", http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(id), nil, nil)
}

// ListTasks calls GET /api/v1/tasks.
func (c *Client) ListTasks(ctx context.Context) (task.ListResponse, error) {
	var out task.ListResponse
	if err := c.do(ctx, "list tasks", http.MethodGet, "/api/v1/tasks", nil, &out); err != nil {
		return task.ListResponse{}, err
	}
	return out, nil
}

// GetTask calls GET /api/v1/tasks/{id}.
func (c *Client) GetTask(ctx context.Context, id string) (task.Record, error) {
	var rec task.Record
	if err := c.do(ctx, "get task", http.MethodGet, "/api/v1/tasks/"+url.PathEscape(id), nil, &rec); err != nil {
		return task.Record{}, err
	}
	return rec, nil
}

// Stats calls GET /api/v1/tasks/status/stats.
func (c *Client) Stats(ctx context.Context) (task.BackendStats, error) {
	var out task.BackendStats
	if err := c.do(ctx, "task stats", http.MethodGet, "/api/v1/tasks/status/stats", nil, &out); err != nil {
		return task.BackendStats{}, err
	}
	return out, nil
}

// Health calls GET /health and reports whether the backend answered 2xx.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil)
}

func (c *Client) resolve(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(SessionHeader, c.sessionID)
}

// do performs one call. in is JSON-encoded when non-nil; out is decoded from
// the response body when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %s: failed to marshal request: %v", ErrRequestFailed, op, err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint, err := c.resolve(path)
	if err != nil {
		return fmt.Errorf("%w: %s: invalid path: %v", ErrRequestFailed, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%w: %s: failed to create request: %v", ErrRequestFailed, op, err)
	}
	c.applyHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			"op", op,
			"method", method,
			"path", path,
			"error", err)
		return fmt.Errorf("%w: %s: %w", ErrRequestFailed, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: failed to read response: %v", ErrRequestFailed, op, err)
	}

	c.logger.Debug("backend request completed",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       errorBody(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %v", ErrRequestFailed, op, err)
	}
	return nil
}

// errorBody prefers the backend's {"error": "..."} message over raw bytes.
func errorBody(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		return envelope.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
