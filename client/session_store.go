package client

import (
	"sync"

	"github.com/upb/permguard/session"
)

// Status is the loading state of the ambient session
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// SessionState is a snapshot of the ambient session
type SessionState struct {
	Status  Status
	Session *session.Session
}

// Loading reports whether the session is still being resolved
func (s SessionState) Loading() bool {
	return s.Status == StatusLoading
}

// SessionStore holds the current session and notifies subscribers of changes.
// A new store starts in the loading state.
type SessionStore struct {
	mu     sync.Mutex
	state  SessionState
	subs   map[int]chan SessionState
	nextID int
}

// NewSessionStore creates a SessionStore in the loading state
func NewSessionStore() *SessionStore {
	return &SessionStore{
		state: SessionState{Status: StatusLoading},
		subs:  make(map[int]chan SessionState),
	}
}

// Current returns the latest state
func (s *SessionStore) Current() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the state and notifies subscribers
func (s *SessionStore) Set(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	for _, ch := range s.subs {
		offer(ch, state)
	}
}

// SetSession records the outcome of session resolution. A nil or anonymous
// session is unauthenticated.
func (s *SessionStore) SetSession(sess *session.Session) {
	if !sess.Authenticated() {
		s.Set(SessionState{Status: StatusUnauthenticated})
		return
	}
	s.Set(SessionState{Status: StatusAuthenticated, Session: sess})
}

// Subscribe returns a channel that receives the current state immediately and
// then every later one. Slow readers only see the latest state. Call cancel to
// stop delivery; the channel is closed.
func (s *SessionStore) Subscribe() (<-chan SessionState, func()) {
	ch := make(chan SessionState, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// offer replaces any undelivered state with the latest one. Callers hold s.mu.
func offer(ch chan SessionState, state SessionState) {
	select {
	case <-ch:
	default:
	}
	ch <- state
}
