package ratelimit

import (
	"sync"
	"time"
)

// Record holds the attempt timestamps of one client inside the current window.
type Record struct {
	Attempts []time.Time
	ResetAt  time.Time
}

// Store keeps rate-limit records by identifier. Update must apply fn
// atomically for a single key; a shared store for several instances only
// has to provide that guarantee.
type Store interface {
	Update(id string, fn func(rec *Record) *Record)
	Sweep(now time.Time) int
}

type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Update(id string, fn func(rec *Record) *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.records[id])
	if next == nil {
		delete(s.records, id)
		return
	}
	s.records[id] = next
}

// Sweep drops records that have no attempts left inside their window.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if len(rec.Attempts) == 0 || !now.Before(rec.ResetAt) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
