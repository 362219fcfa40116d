package present

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/taskdash/internal/task"
)

const barWidth = 20

// Terminal writes the dashboard as plain text lines to an io.Writer.
// Writes are serialized so callbacks from different goroutines do not interleave.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
	// Verbose also prints a line for every single-task render.
	Verbose bool
}

// NewTerminal creates a Terminal presenter writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, now: time.Now}
}

// RenderTask prints one task when Verbose is set. The list render that
// follows every update already shows it otherwise. Tasks that reached a
// terminal status get the full detail view.
func (t *Terminal) RenderTask(tk task.Task) {
	if !t.Verbose {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if tk.Status.Terminal() {
		fmt.Fprint(t.out, FormatDetails(tk))
		return
	}
	fmt.Fprintln(t.out, FormatTask(tk))
}

// RenderList prints the display window, newest first.
func (t *Terminal) RenderList(sorted []task.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "--- tasks (%d shown) ---\n", len(sorted))
	if len(sorted) == 0 {
		fmt.Fprintln(t.out, "no tasks")
		return
	}
	for _, tk := range sorted {
		fmt.Fprintln(t.out, FormatTask(tk))
	}
}

// RenderStats prints the status counters.
func (t *Terminal) RenderStats(stats task.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, FormatStats(stats))
}

// SetConnectionIndicator prints the push channel state.
func (t *Terminal) SetConnectionIndicator(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if connected {
		fmt.Fprintln(t.out, "[push] connected")
	} else {
		fmt.Fprintln(t.out, "[push] disconnected")
	}
}

// AppendLog prints a timestamped log line.
func (t *Terminal) AppendLog(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s] %s\n", t.now().Format("15:04:05"), line)
}

// FormatTask renders a single task as one line:
//
//	<id>  <status>  [#####     ]  50%  error: ...
func FormatTask(tk task.Task) string {
	p := tk.ClampedProgress()
	filled := p * barWidth / 100

	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-9s  [%s%s] %3d%%",
		tk.ID, tk.Status,
		strings.Repeat("#", filled), strings.Repeat(" ", barWidth-filled),
		p)
	if tk.Name != "" {
		fmt.Fprintf(&b, "  %s", tk.Name)
	}
	if tk.Error != "" {
		fmt.Fprintf(&b, "  error: %s", tk.Error)
	}
	return b.String()
}

// FormatStats renders the counters shown in the dashboard header.
func FormatStats(s task.Stats) string {
	return fmt.Sprintf("total=%d pending=%d running=%d completed=%d failed=%d cancelled=%d",
		s.Total, s.Pending, s.Running, s.Completed, s.Failed, s.Cancelled)
}

// FormatDetails renders the multi-line detail view for one task.
func FormatDetails(tk task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", tk.ID)
	if tk.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", tk.Name)
	}
	fmt.Fprintf(&b, "Status: %s\n", tk.Status)
	fmt.Fprintf(&b, "Progress: %d%%\n", tk.ClampedProgress())
	if tk.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", tk.Error)
	}
	if len(tk.Result) > 0 {
		fmt.Fprintf(&b, "Result: %s\n", tk.Result)
	}
	fmt.Fprintf(&b, "Timestamp: %s\n", tk.Timestamp.Format(time.RFC3339))
	return b.String()
}

var _ Presenter = (*Terminal)(nil)
