// Package present renders the dashboard's task view. The core only ever
// notifies a Presenter; it never reads anything back from it.
package present

import "github.com/phrazzld/taskdash/internal/task"

// Presenter receives notifications about task state, connectivity and
// user-visible log lines.
type Presenter interface {
	RenderTask(t task.Task)
	RenderList(sorted []task.Task)
	RenderStats(stats task.Stats)
	SetConnectionIndicator(connected bool)
	AppendLog(line string)
}

// Multi fans every notification out to each presenter in order.
type Multi []Presenter

func (m Multi) RenderTask(t task.Task) {
	for _, p := range m {
		p.RenderTask(t)
	}
}

func (m Multi) RenderList(sorted []task.Task) {
	for _, p := range m {
		p.RenderList(sorted)
	}
}

func (m Multi) RenderStats(stats task.Stats) {
	for _, p := range m {
		p.RenderStats(stats)
	}
}

func (m Multi) SetConnectionIndicator(connected bool) {
	for _, p := range m {
		p.SetConnectionIndicator(connected)
	}
}

func (m Multi) AppendLog(line string) {
	for _, p := range m {
		p.AppendLog(line)
	}
}

// Nop discards every notification.
type Nop struct{}

func (Nop) RenderTask(task.Task)        {}
func (Nop) RenderList([]task.Task)      {}
func (Nop) RenderStats(task.Stats)      {}
func (Nop) SetConnectionIndicator(bool) {}
func (Nop) AppendLog(string)            {}

var (
	_ Presenter = Multi(nil)
	_ Presenter = Nop{}
)
