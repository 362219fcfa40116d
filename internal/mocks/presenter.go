package mocks

import (
	"strings"
	"sync"

	"github.com/phrazzld/taskdash/internal/present"
	"github.com/phrazzld/taskdash/internal/task"
)

// RecordingPresenter implements present.Presenter and keeps every
// notification it receives for later inspection.
type RecordingPresenter struct {
	mu           sync.Mutex
	tasks        []task.Task
	lists        [][]task.Task
	stats        []task.Stats
	connectivity []bool
	logs         []string
}

// NewRecordingPresenter creates an empty RecordingPresenter.
func NewRecordingPresenter() *RecordingPresenter {
	return &RecordingPresenter{}
}

func (p *RecordingPresenter) RenderTask(t task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, t)
}

func (p *RecordingPresenter) RenderList(sorted []task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]task.Task, len(sorted))
	copy(cp, sorted)
	p.lists = append(p.lists, cp)
}

func (p *RecordingPresenter) RenderStats(stats task.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = append(p.stats, stats)
}

func (p *RecordingPresenter) SetConnectionIndicator(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectivity = append(p.connectivity, connected)
}

func (p *RecordingPresenter) AppendLog(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logs = append(p.logs, line)
}

// Tasks returns every task passed to RenderTask.
func (p *RecordingPresenter) Tasks() []task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]task.Task(nil), p.tasks...)
}

// Lists returns every list passed to RenderList.
func (p *RecordingPresenter) Lists() [][]task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]task.Task(nil), p.lists...)
}

// LastList returns the most recent list render, or nil if none happened.
func (p *RecordingPresenter) LastList() []task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lists) == 0 {
		return nil
	}
	return p.lists[len(p.lists)-1]
}

// Stats returns every value passed to RenderStats.
func (p *RecordingPresenter) Stats() []task.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]task.Stats(nil), p.stats...)
}

// LastStats returns the most recent stats render.
func (p *RecordingPresenter) LastStats() (task.Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stats) == 0 {
		return task.Stats{}, false
	}
	return p.stats[len(p.stats)-1], true
}

// Connectivity returns every connection indicator change in order.
func (p *RecordingPresenter) Connectivity() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.connectivity...)
}

// Logs returns every log line appended.
func (p *RecordingPresenter) Logs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.logs...)
}

// HasLog reports whether any log line contains substr.
func (p *RecordingPresenter) HasLog(substr string) bool {
	for _, l := range p.Logs() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Reset clears everything recorded so far.
func (p *RecordingPresenter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks, p.lists, p.stats, p.connectivity, p.logs = nil, nil, nil, nil, nil
}

var _ present.Presenter = (*RecordingPresenter)(nil)
