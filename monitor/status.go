package monitor

import (
	"sync"
	"time"
)

// StatusStore keeps the most recent cycle in memory for the status server.
// It is safe for concurrent use.
type StatusStore struct {
	mu        sync.RWMutex
	startTime time.Time
	cycles    int
	last      *CycleReport
}

// NewStatusStore creates an empty store.
func NewStatusStore(startTime time.Time) *StatusStore {
	return &StatusStore{startTime: startTime}
}

// Record replaces the last cycle.
func (s *StatusStore) Record(c CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	s.last = &c
}

// Snapshot returns the number of completed cycles and a copy of the last
// one (nil before the first cycle ends).
func (s *StatusStore) Snapshot() (cycles int, last *CycleReport) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return s.cycles, nil
	}
	cp := *s.last
	cp.Sites = append([]SiteReport(nil), s.last.Sites...)
	return s.cycles, &cp
}

// Uptime is the time since the store was created.
func (s *StatusStore) Uptime() time.Duration {
	return time.Since(s.startTime)
}
