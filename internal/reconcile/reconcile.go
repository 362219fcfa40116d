// Package reconcile merges the two sources of task state, push updates and
// periodic list snapshots, into the task.Store and tells the presenter to
// redraw. Conflicts resolve by last write wins: there is no timestamp gate,
// so whichever update is applied last for an ID is what the store holds.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskdash/internal/events"
	"github.com/phrazzld/taskdash/internal/present"
	"github.com/phrazzld/taskdash/internal/task"
)

// Reconciler is the only writer to its Store. Push updates, poll snapshots
// and submit confirmations arrive on different goroutines; mu applies them
// one at a time so each store write and the render that follows it are seen
// together.
type Reconciler struct {
	mu           sync.Mutex
	store        *task.Store
	presenter    present.Presenter
	displayLimit int
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a Reconciler that renders at most displayLimit tasks.
func New(store *task.Store, presenter present.Presenter, displayLimit int, logger *slog.Logger) *Reconciler {
	if presenter == nil {
		presenter = present.Nop{}
	}
	return &Reconciler{
		store:        store,
		presenter:    presenter,
		displayLimit: displayLimit,
		logger:       logger.With("component", "reconciler"),
		now:          time.Now,
	}
}

// ApplyPushUpdate replaces the stored record for u.TaskID with the frame's
// contents, then re-renders the list, the stats and the task itself.
func (r *Reconciler) ApplyPushUpdate(u task.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := u.Task()
	created, err := r.store.Upsert(t)
	if err != nil {
		return fmt.Errorf("apply push update: %w", err)
	}

	r.logger.Debug("applied push update",
		"task_id", t.ID,
		"status", t.Status,
		"progress", t.Progress,
		"created", created)

	r.refresh()
	r.presenter.RenderTask(t)
	return nil
}

// ApplyPollSnapshot upserts every record of a full list response. Tasks the
// store knows about but the snapshot omits are left as they are. It returns
// the number of IDs seen for the first time.
func (r *Reconciler) ApplyPollSnapshot(records []task.Record) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, rec := range records {
		created, err := r.store.Upsert(rec.Task())
		if err != nil {
			r.logger.Warn("skipping snapshot record", "error", err)
			continue
		}
		if created {
			added++
		}
	}

	r.logger.Debug("applied poll snapshot",
		"records", len(records),
		"added", added,
		"known", r.store.Len())

	r.refresh()
	return added
}

// ApplySubmitted records a task the backend just accepted. The record is
// shown as pending until the push channel or the next poll says otherwise.
// If an update for the same ID already arrived, it is kept: the submit
// response never overrides fresher state.
func (r *Reconciler) ApplySubmitted(rec task.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := rec.Task()
	if t.Status == "" {
		t.Status = task.StatusPending
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = r.now()
	}

	inserted, err := r.store.Insert(t)
	if err != nil {
		return false, fmt.Errorf("apply submitted task: %w", err)
	}
	if !inserted {
		r.logger.Debug("submitted task already known, keeping existing state", "task_id", t.ID)
		return false, nil
	}

	r.refresh()
	return true, nil
}

// HandleEvent applies task update events delivered by the push channel.
func (r *Reconciler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Kind != events.KindTaskUpdate {
		r.logger.Debug("ignoring event with unsupported kind",
			"event_kind", event.Kind,
			"event_id", event.ID)
		return nil
	}

	var u task.Update
	if err := event.UnmarshalPayload(&u); err != nil {
		r.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := r.ApplyPushUpdate(u); err != nil {
		return err
	}

	r.presenter.AppendLog(fmt.Sprintf("task %s status -> %s", u.TaskID, u.Status))
	return nil
}

// Refresh re-renders the list and stats from the current store contents.
func (r *Reconciler) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh()
}

func (r *Reconciler) refresh() {
	r.presenter.RenderList(r.store.Sorted(r.displayLimit))
	r.presenter.RenderStats(r.store.Stats())
}

// Ensure Reconciler implements events.EventHandler
var _ events.EventHandler = (*Reconciler)(nil)
