package task

// Stats holds per-status task counts. Tasks with an unrecognized status
// count toward Total only.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Count returns the number of tasks recorded with status s.
func (s Stats) Count(st Status) int {
	switch st {
	case StatusPending:
		return s.Pending
	case StatusRunning:
		return s.Running
	case StatusCompleted:
		return s.Completed
	case StatusFailed:
		return s.Failed
	case StatusCancelled:
		return s.Cancelled
	}
	return 0
}

func (s *Stats) add(st Status) {
	s.Total++
	switch st {
	case StatusPending:
		s.Pending++
	case StatusRunning:
		s.Running++
	case StatusCompleted:
		s.Completed++
	case StatusFailed:
		s.Failed++
	case StatusCancelled:
		s.Cancelled++
	}
}
