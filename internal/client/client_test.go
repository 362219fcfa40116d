package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskdash/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeBackend records requests and serves the backend's REST shapes.
type fakeBackend struct {
	mu        sync.Mutex
	submitted []map[string]interface{}
	cancelled []string
	sessions  map[string]bool
}

func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.mu.Lock()
			b.sessions[req.Header.Get(SessionHeader)] = true
			b.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]interface{}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
				return
			}
			if body["name"] == "" || body["name"] == nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Task name is required"})
				return
			}
			b.mu.Lock()
			b.submitted = append(b.submitted, body)
			b.mu.Unlock()
			writeJSON(w, http.StatusCreated, task.Record{
				ID:        "t-new",
				Name:      body["name"].(string),
				Status:    task.StatusPending,
				CreatedAt: created,
			})
		})
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, task.ListResponse{
				Tasks: []task.Record{
					{ID: "t1", Name: "one", Status: task.StatusRunning, Progress: 40, CreatedAt: created},
					{ID: "t2", Name: "two", Status: task.StatusCompleted, Progress: 100, CreatedAt: created.Add(time.Minute)},
				},
				Total: 2,
			})
		})
		r.Get("/status/stats", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"stats": map[string]int{"pending": 1, "running": 2},
			})
		})
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			if id != "t1" {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
				return
			}
			writeJSON(w, http.StatusOK, task.Record{ID: "t1", Status: task.StatusRunning, CreatedAt: created})
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			if id == "done" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Task cannot be cancelled"})
				return
			}
			b.mu.Lock()
			b.cancelled = append(b.cancelled, id)
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"message": "Task cancelled successfully"})
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{sessions: make(map[string]bool)}
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL: srv.URL + "/",
		Timeout: 5 * time.Second,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return c, backend
}

func TestNew_RejectsInvalidURL(t *testing.T) {
	_, err := New(Config{BaseURL: "localhost"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "://bad"})
	assert.Error(t, err)
}

func TestSubmitTask(t *testing.T) {
	c, backend := newTestClient(t)

	rec, err := c.SubmitTask(context.Background(), task.SubmitRequest{
		Name:    "resize",
		Payload: map[string]int{"width": 640},
	})

	require.NoError(t, err)
	assert.Equal(t, "t-new", rec.ID)
	assert.Equal(t, "resize", rec.Name)
	assert.Equal(t, task.StatusPending, rec.Status)
	assert.True(t, rec.CreatedAt.Equal(created))

	require.Len(t, backend.submitted, 1)
	assert.Equal(t, "resize", backend.submitted[0]["name"])
	assert.Equal(t, map[string]interface{}{"width": float64(640)}, backend.submitted[0]["payload"])
	assert.NotContains(t, backend.submitted[0], "timeout")
}

func TestSubmitTask_Rejected(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.SubmitTask(context.Background(), task.SubmitRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "submit task", reqErr.Op)
	assert.Equal(t, "Task name is required", reqErr.Body)
}

func TestCancelTask(t *testing.T) {
	c, backend := newTestClient(t)

	require.NoError(t, c.CancelTask(context.Background(), "t1"))
	assert.Equal(t, []string{"t1"}, backend.cancelled)

	err := c.CancelTask(context.Background(), "done")
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "http 400")
}

func TestListTasks(t *testing.T) {
	c, _ := newTestClient(t)

	list, err := c.ListTasks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Tasks, 2)
	assert.Equal(t, "t1", list.Tasks[0].ID)
	assert.Equal(t, task.StatusRunning, list.Tasks[0].Status)
	assert.Equal(t, 40, list.Tasks[0].Progress)
}

func TestGetTask(t *testing.T) {
	c, _ := newTestClient(t)

	rec, err := c.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.ID)

	_, err = c.GetTask(context.Background(), "missing")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
}

func TestStatsAndHealth(t *testing.T) {
	c, _ := newTestClient(t)

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Stats[task.StatusRunning])
	assert.Equal(t, 1, stats.Stats[task.StatusPending])

	assert.NoError(t, c.Health(context.Background()))
}

func TestSessionHeaderIsStable(t *testing.T) {
	c, backend := newTestClient(t)

	_, _ = c.ListTasks(context.Background())
	_ = c.Health(context.Background())

	assert.Len(t, backend.sessions, 1)
	assert.True(t, backend.sessions[c.SessionID()])
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	_, err = c.ListTasks(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr), "network failures carry no status code")
}

func TestContextCancelled(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListTasks(ctx)

	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorBody(t *testing.T) {
	assert.Equal(t, "boom", errorBody([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "plain text", errorBody([]byte("plain text\n")))

	long := make([]byte, maxErrorBody+10)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, errorBody(long), maxErrorBody+3)
}
