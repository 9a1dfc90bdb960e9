package chat

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultSessionTTL is how long an idle session survives.
const DefaultSessionTTL = 30 * time.Minute

// Store persists chat sessions between turns. Get returns ErrSessionNotFound
// for unknown or expired ids. Save only updates a live session, returning
// ErrSessionNotFound once it was deleted or expired, and refreshes the idle
// timeout.
type Store interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory with a sliding expiry.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// NewMemoryStore creates an in-process store. ttl <= 0 means DefaultSessionTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
}

// Create stores a new session, failing if the id is already taken.
func (s *MemoryStore) Create(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("chat: session %s already exists", session.ID)
	}
	s.putLocked(session)
	return nil
}

// Get returns a private copy of the session.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if now.After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	entry.expiresAt = now.Add(s.ttl)
	s.sessions[id] = entry
	return entry.session.clone(), nil
}

// Save replaces a live session with a copy and refreshes its expiry.
func (s *MemoryStore) Save(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	if _, exists := s.sessions[session.ID]; !exists {
		return ErrSessionNotFound
	}
	s.putLocked(session)
	return nil
}

func (s *MemoryStore) putLocked(session *Session) {
	s.sessions[session.ID] = memoryEntry{
		session:   session.clone(),
		expiresAt: s.now().Add(s.ttl),
	}
}

// Delete forgets the session. Deleting an unknown id is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// sweepLocked drops expired sessions so abandoned widgets do not accumulate.
func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
