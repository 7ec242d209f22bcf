package funnel

import (
	"sync"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"

	"github.com/google/uuid"
)

// SessionStore holds live conversation sessions in memory. Sessions are
// single-owner (one widget, one browser tab), so a mutex around the map
// is all the coordination needed. Idle sessions are reaped in the
// background the same way the TTL cache cleans itself up.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.ConversationSession
	inflight map[string]bool
	closing  map[string]bool
	idleTTL  time.Duration
}

// NewSessionStore creates a store that reaps sessions idle longer than
// idleTTL.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*domain.ConversationSession),
		inflight: make(map[string]bool),
		closing:  make(map[string]bool),
		idleTTL:  idleTTL,
	}
	go s.reap()
	return s
}

// Create opens a new session for a visitor at stage 1.
func (s *SessionStore) Create(visitorID string) *domain.ConversationSession {
	now := time.Now()
	sess := &domain.ConversationSession{
		ID:           uuid.New().String(),
		VisitorID:    visitorID,
		Stage:        domain.StageWelcome,
		QuickReplies: QuickRepliesFor(domain.StageWelcome),
		StartedAt:    now,
		LastActiveAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session, or *domain.ErrNotFound.
func (s *SessionStore) Get(id string) (*domain.ConversationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}
	return sess, nil
}

// Delete removes a session (widget closed). If a turn is still in
// flight the removal is deferred until End, so the running turn never
// sees its session vanish from under it.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[id] {
		s.closing[id] = true
		return
	}
	delete(s.sessions, id)
	delete(s.closing, id)
}

// TryBegin marks a session as having a turn in flight. Returns false when
// a previous turn has not settled yet — the double-submit guard.
func (s *SessionStore) TryBegin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[id] {
		return false
	}
	s.inflight[id] = true
	return true
}

// End clears the in-flight flag for a session and completes a close
// that arrived while the turn was running.
func (s *SessionStore) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, id)
	if s.closing[id] {
		delete(s.sessions, id)
		delete(s.closing, id)
	}
}

// reap periodically drops sessions idle past the TTL.
func (s *SessionStore) reap() {
	ticker := time.NewTicker(s.idleTTL)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-s.idleTTL)
		s.mu.Lock()
		for id, sess := range s.sessions {
			if sess.LastActiveAt.Before(cutoff) && !s.inflight[id] {
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}
