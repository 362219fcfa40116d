package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskdash/internal/events"
	"github.com/phrazzld/taskdash/internal/present"
	"github.com/phrazzld/taskdash/internal/push"
	"github.com/phrazzld/taskdash/internal/reconcile"
	"github.com/phrazzld/taskdash/internal/redact"
	"github.com/phrazzld/taskdash/internal/task"
)

// ErrAlreadyStarted is returned by Start on a controller that has been
// started before.
var ErrAlreadyStarted = errors.New("dashboard already started")

// ErrInvalidRequest wraps validation failures for submit requests.
var ErrInvalidRequest = errors.New("invalid task request")

// Backend is the subset of the REST client the controller uses.
type Backend interface {
	SubmitTask(ctx context.Context, req task.SubmitRequest) (task.Record, error)
	CancelTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context) (task.ListResponse, error)
	GetTask(ctx context.Context, id string) (task.Record, error)
	Stats(ctx context.Context) (task.BackendStats, error)
	Health(ctx context.Context) error
}

// Options configures a Controller.
type Options struct {
	Backend   Backend
	Presenter present.Presenter

	// PushURL is the ws:// endpoint of the backend's task update channel
	PushURL    string
	PushDialer push.Dialer
	Policy     push.Policy
	PongWait   time.Duration
	WriteWait  time.Duration

	PollInterval time.Duration
	DisplayLimit int

	Logger *slog.Logger
}

// Controller is the dashboard's explicit context object.
type Controller struct {
	backend      Backend
	presenter    present.Presenter
	store        *task.Store
	reconciler   *reconcile.Reconciler
	emitter      *events.InMemoryEventEmitter
	manager      *push.Manager
	pollInterval time.Duration
	displayLimit int
	validate     *validator.Validate
	logger       *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Controller. Nothing connects until Start.
func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, errors.New("dashboard: backend is required")
	}
	if opts.PushURL == "" {
		return nil, errors.New("dashboard: push url is required")
	}
	if opts.Presenter == nil {
		opts.Presenter = present.Nop{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.DisplayLimit <= 0 {
		opts.DisplayLimit = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	logger := opts.Logger.With("component", "dashboard")
	store := task.NewStore()
	reconciler := reconcile.New(store, opts.Presenter, opts.DisplayLimit, opts.Logger)

	emitter := events.NewInMemoryEventEmitter(opts.Logger)
	emitter.RegisterHandler(events.KindTaskUpdate, reconciler)

	c := &Controller{
		backend:      opts.Backend,
		presenter:    opts.Presenter,
		store:        store,
		reconciler:   reconciler,
		emitter:      emitter,
		pollInterval: opts.PollInterval,
		displayLimit: opts.DisplayLimit,
		validate:     validator.New(),
		logger:       logger,
	}
	emitter.RegisterHandler(events.KindConnection, events.HandlerFunc(c.handleNotice))

	c.manager = push.NewManager(push.Options{
		URL:       opts.PushURL,
		Dialer:    opts.PushDialer,
		Emitter:   emitter,
		Observer:  opts.Presenter,
		Policy:    opts.Policy,
		PongWait:  opts.PongWait,
		WriteWait: opts.WriteWait,
		Logger:    opts.Logger,
	})

	return c, nil
}

// Start connects the push channel and starts polling. The first poll runs
// immediately. A failed initial connect is not an error: the push channel's
// reconnection policy takes over.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.logger.Info("starting dashboard",
		"poll_interval", c.pollInterval,
		"display_limit", c.displayLimit)

	c.reconciler.Refresh()

	c.wg.Add(1)
	go c.pollLoop(ctx)

	if err := c.manager.Connect(ctx); err != nil {
		c.logger.Warn("initial push connect failed", "error", redact.Error(err))
	}
	return nil
}

// Stop closes the push channel, stops the poller and waits for both.
// It is safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()

	c.logger.Info("stopping dashboard")

	if cancel != nil {
		cancel()
	}
	if err := c.manager.Close(); err != nil {
		c.logger.Debug("push channel close", "error", err)
	}
	c.wg.Wait()

	c.logger.Info("dashboard stopped")
}

// SubmitTask validates req, submits it and records the new task as pending.
func (c *Controller) SubmitTask(ctx context.Context, req task.SubmitRequest) (task.Record, error) {
	if err := c.validate.Struct(req); err != nil {
		return task.Record{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	rec, err := c.backend.SubmitTask(ctx, req)
	if err != nil {
		c.reportFailure("submit", err)
		return task.Record{}, err
	}

	if _, err := c.reconciler.ApplySubmitted(rec); err != nil {
		c.logger.Warn("backend accepted task without an id", "error", err)
		return rec, nil
	}

	c.logger.Info("task submitted", "task_id", rec.ID, "name", rec.Name)
	c.presenter.AppendLog(fmt.Sprintf("submitted task %s (%s)", rec.ID, req.Name))
	return rec, nil
}

// CancelTask asks the backend to cancel a task. Local state is not touched;
// the status change arrives over the push channel or with the next poll.
func (c *Controller) CancelTask(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: task id is required", ErrInvalidRequest)
	}

	if err := c.backend.CancelTask(ctx, id); err != nil {
		c.reportFailure("cancel", err)
		return err
	}

	c.logger.Info("task cancel requested", "task_id", id)
	c.presenter.AppendLog(fmt.Sprintf("cancel requested for task %s", id))
	return nil
}

// Poll fetches the full task list once and merges it.
func (c *Controller) Poll(ctx context.Context) error {
	list, err := c.backend.ListTasks(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		c.reportFailure("poll", err)
		return err
	}

	added := c.reconciler.ApplyPollSnapshot(list.Tasks)
	c.logger.Debug("poll complete", "tasks", len(list.Tasks), "added", added)
	return nil
}

// Task returns the last-known state of one task.
func (c *Controller) Task(id string) (task.Task, bool) {
	return c.store.Get(id)
}

// LookupTask returns a task from the local view and falls back to the
// backend for ids the dashboard has not observed yet. Fetched records are
// returned as-is; the store only changes through push, poll and submit.
func (c *Controller) LookupTask(ctx context.Context, id string) (task.Task, error) {
	if id == "" {
		return task.Task{}, fmt.Errorf("%w: task id is required", ErrInvalidRequest)
	}
	if t, ok := c.store.Get(id); ok {
		return t, nil
	}

	rec, err := c.backend.GetTask(ctx, id)
	if err != nil {
		c.logger.Debug("backend task lookup failed", "task_id", id, "error", redact.Error(err))
		return task.Task{}, err
	}
	return rec.Task(), nil
}

// BackendStats returns the backend's own per-status counts, which include
// tasks this dashboard has never seen.
func (c *Controller) BackendStats(ctx context.Context) (task.BackendStats, error) {
	return c.backend.Stats(ctx)
}

// BackendHealth checks that the backend answers its health endpoint.
func (c *Controller) BackendHealth(ctx context.Context) error {
	return c.backend.Health(ctx)
}

// Tasks returns the display view: newest first, at most limit entries. A
// limit of zero or less means the configured display limit.
func (c *Controller) Tasks(limit int) []task.Task {
	if limit <= 0 {
		limit = c.displayLimit
	}
	return c.store.Sorted(limit)
}

// Stats counts every known task, not just the displayed ones.
func (c *Controller) Stats() task.Stats {
	return c.store.Stats()
}

// Connected reports whether the push channel is open.
func (c *Controller) Connected() bool {
	return c.manager.Connected()
}

// PushStatus returns the push channel's state and reconnection counters.
func (c *Controller) PushStatus() push.Status {
	return c.manager.Status()
}

func (c *Controller) handleNotice(_ context.Context, e *events.Event) error {
	if msg := push.NoticeMessage(e.Payload); msg != "" {
		c.presenter.AppendLog("backend: " + msg)
	}
	return nil
}

// reportFailure sends a failed backend call to both log sinks.
func (c *Controller) reportFailure(op string, err error) {
	msg := redact.Error(err)
	c.logger.Error(op+" failed", "error", msg)
	c.presenter.AppendLog(fmt.Sprintf("%s failed: %s", op, msg))
}
