package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskdash/internal/client"
	"github.com/phrazzld/taskdash/internal/mocks"
	"github.com/phrazzld/taskdash/internal/push"
	"github.com/phrazzld/taskdash/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendServer serves the task backend's REST list and push endpoints.
type backendServer struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	list  []task.Record
	conns []*websocket.Conn
}

func (b *backendServer) setList(records ...task.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = records
}

func (b *backendServer) push(t *testing.T, frame interface{}) {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.conns)
	require.NoError(t, b.conns[len(b.conns)-1].WriteJSON(frame))
}

func (b *backendServer) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/tasks", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		resp := task.ListResponse{Tasks: append([]task.Record(nil), b.list...), Total: len(b.list)}
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	r.Get("/api/v1/ws/tasks", func(w http.ResponseWriter, req *http.Request) {
		conn, err := b.upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.conns = append(b.conns, conn)
		_ = conn.WriteJSON(map[string]interface{}{
			"task_id": "system",
			"status":  "connected",
			"result":  map[string]string{"type": "connection", "message": "Connected to task updates"},
		})
		b.mu.Unlock()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	return r
}

func TestController_PushAndPollAgainstBackend(t *testing.T) {
	backend := &backendServer{}
	backend.setList(task.Record{ID: "t1", Name: "one", Status: task.StatusRunning, Progress: 50, CreatedAt: t0})

	srv := httptest.NewServer(backend.router())
	defer srv.Close()

	rest, err := client.New(client.Config{BaseURL: srv.URL, Timeout: time.Second, Logger: discardLogger()})
	require.NoError(t, err)

	presenter := mocks.NewRecordingPresenter()
	c, err := New(Options{
		Backend:      rest,
		Presenter:    presenter,
		PushURL:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/tasks",
		PushDialer:   push.NewWebsocketDialer(time.Second, nil),
		Policy:       push.DefaultPolicy(),
		PollInterval: 20 * time.Millisecond,
		Logger:       discardLogger(),
	})
	require.NoError(t, err)
	defer c.Stop()

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Connected())

	require.Eventually(t, func() bool {
		got, ok := c.Task("t1")
		return ok && got.Status == task.StatusRunning
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return presenter.HasLog("backend: Connected to task updates")
	}, 2*time.Second, 5*time.Millisecond)

	// The backend stops listing t1; a new task appears in the next poll.
	backend.setList(task.Record{ID: "t2", Name: "two", Status: task.StatusPending, CreatedAt: t0.Add(time.Minute)})
	require.Eventually(t, func() bool {
		_, ok := c.Task("t2")
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	backend.push(t, task.Update{TaskID: "t1", Status: task.StatusCompleted, Progress: 100, Timestamp: t0})
	require.Eventually(t, func() bool {
		got, _ := c.Task("t1")
		return got.Status == task.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	got, _ := c.Task("t1")
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "", got.Name, "a push update replaces the whole record")

	stats := c.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Pending)

	view := c.Tasks(0)
	require.Len(t, view, 2)
	assert.Equal(t, "t2", view[0].ID)
	assert.True(t, presenter.HasLog("task t1 status -> completed"))

	c.Stop()
	assert.False(t, c.Connected())
}
