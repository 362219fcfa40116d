package task

import (
	"errors"
	"sort"
	"sync"
)

// ErrMissingID is returned when a task without an ID is written to the Store.
var ErrMissingID = errors.New("task id is required")

// Store is an in-memory mapping from task ID to last-known task state.
// It has a single-writer contract (the reconciler) but is safe for concurrent
// readers such as the status surface.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]Task)}
}

// Upsert replaces the stored record for t.ID wholesale. It reports whether
// the ID was new.
func (s *Store) Upsert(t Task) (bool, error) {
	if t.ID == "" {
		return false, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.tasks[t.ID]
	s.tasks[t.ID] = t
	return !exists, nil
}

// Insert stores t only if no record for t.ID exists yet. It reports whether
// the record was inserted.
func (s *Store) Insert(t Task) (bool, error) {
	if t.ID == "" {
		return false, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return false, nil
	}
	s.tasks[t.ID] = t
	return true, nil
}

// Get returns the record stored for id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	return t, ok
}

// Len returns the number of tasks observed so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Sorted returns the stored tasks ordered by Timestamp, newest first, with
// ties broken by ID. A positive limit truncates the result to that many
// entries.
func (s *Store) Sorted(limit int) []Task {
	s.mu.RLock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats counts every stored task by status with a full scan.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, t := range s.tasks {
		st.add(t.Status)
	}
	return st
}
