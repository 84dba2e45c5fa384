// Package workbench holds per-session inspection state and turns captured
// fragments into generated test data on request.
package workbench

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Bahjat/formfill/internal/model"
)

// Session is the state of one panel: the last captured fragment, the specs
// inferred from it, the checkbox form prefilled by inspection and the last
// generated result, which exports reuse.
type Session struct {
	ID         string
	Content    string
	HasContent bool
	Specs      []model.FieldSpec
	Form       CheckboxForm
	Last       *Result
}

// Store keeps sessions in memory. When full, creating a session evicts the
// oldest one.
type Store struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*Session
	order    []string
}

// NewStore returns a Store holding at most maxSessions sessions.
func NewStore(maxSessions int) *Store {
	return &Store{
		max:      max(maxSessions, 1),
		sessions: make(map[string]*Session),
	}
}

// Create adds an empty session and returns its ID.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.order) >= s.max {
		delete(s.sessions, s.order[0])
		s.order = s.order[1:]
	}

	id := uuid.NewString()
	s.sessions[id] = &Session{ID: id}
	s.order = append(s.order, id)
	return id
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	out := *sess
	out.Specs = slices.Clone(sess.Specs)
	return out, true
}

// Update applies fn to the session under the store lock.
func (s *Store) Update(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// Delete removes the session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
