package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"lumidecor/internal/intake"
	"lumidecor/internal/studio"
)

// Entry is one live conversation plus the attachments queued for its next submission.
type Entry struct {
	ID      string
	Studio  *studio.Session
	Pending *intake.Queue

	mu           sync.Mutex
	lastActivity time.Time
}

func (e *Entry) Touch() {
	e.mu.Lock()
	e.lastActivity = time.Now()
	e.mu.Unlock()
}

func (e *Entry) LastActivity() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActivity
}

type Options struct {
	// NewStudio builds the engine for a fresh entry.
	NewStudio func() *studio.Session
	// OnCount is told the number of live entries after every change.
	OnCount func(n int)
}

type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Entry
	newStudio func() *studio.Session
	onCount   func(int)
}

func NewStore(opts Options) *Store {
	newStudio := opts.NewStudio
	if newStudio == nil {
		newStudio = func() *studio.Session { return studio.NewSession(studio.Options{}) }
	}

	return &Store{
		sessions:  make(map[string]*Entry),
		newStudio: newStudio,
		onCount:   opts.OnCount,
	}
}

// Create starts a session under a fresh random id.
func (s *Store) Create() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(uuid.NewString())
}

func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if ok {
		e.Touch()
	}
	return e, ok
}

// GetOrCreate returns the session stored under key, creating it on first use.
func (s *Store) GetOrCreate(key string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[key]; ok {
		e.Touch()
		return e
	}
	return s.createLocked(key)
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.notifyLocked()
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than idle and reports how many went.
// Sessions with a generation in flight are kept.
func (s *Store) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if e.LastActivity().Before(cutoff) && !e.Studio.State().Generating {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.notifyLocked()
	}
	return removed
}

func (s *Store) createLocked(id string) *Entry {
	e := &Entry{
		ID:           id,
		Studio:       s.newStudio(),
		Pending:      intake.NewQueue(),
		lastActivity: time.Now(),
	}
	s.sessions[id] = e
	s.notifyLocked()
	return e
}

func (s *Store) notifyLocked() {
	if s.onCount != nil {
		s.onCount(len(s.sessions))
	}
}
