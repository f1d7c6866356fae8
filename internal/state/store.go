package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/chanwatch/internal/board"
)

// Snapshot represents the latest board data available to the UI.
type Snapshot struct {
	Board               string
	Title               string
	Threads             []board.Summary
	HasData             bool
	NewPosts            int // replies gained by the last successful poll
	TotalNewPosts       int
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Thread returns the summary for id from the last listing.
func (s Snapshot) Thread(id int64) (board.Summary, bool) {
	i := slices.IndexFunc(s.Threads, func(t board.Summary) bool { return t.ID == id })
	if i < 0 {
		return board.Summary{}, false
	}
	return s.Threads[i], true
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetBoard records which board the snapshot describes and discards data
// from any previous board.
func (s *Store) SetBoard(name, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Board != name {
		s.snapshot = Snapshot{}
	}
	s.snapshot.Board = name
	s.snapshot.Title = title
}

// Update replaces the thread listing. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(threads []board.Summary, newPosts int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Threads = slices.Clone(threads)
	s.snapshot.HasData = true
	s.snapshot.NewPosts = newPosts
	s.snapshot.TotalNewPosts += newPosts
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Threads = slices.Clone(s.snapshot.Threads)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
