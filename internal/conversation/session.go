package conversation

import (
	"context"
	"sync"
	"time"
)

// SessionStore keeps the bounded per-user conversation history. Only the
// most recent turns are retained; oldest are evicted first.
type SessionStore interface {
	Append(ctx context.Context, userID string, msgs ...ChatMessage) error
	History(ctx context.Context, userID string) ([]ChatMessage, error)
	Clear(ctx context.Context, userID string) error
}

const (
	defaultSessionCapacity = 15
	defaultSessionTTL      = 24 * time.Hour
)

type memorySession struct {
	msgs    []ChatMessage
	touched time.Time
}

// MemorySessionStore is the in-process SessionStore used in dev and tests.
// Sessions idle past the TTL are dropped by a background janitor.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	capacity int
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemorySessionStore(capacity int, ttl time.Duration) *MemorySessionStore {
	if capacity <= 0 {
		capacity = defaultSessionCapacity
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	s := &MemorySessionStore{
		sessions: make(map[string]*memorySession),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemorySessionStore) Append(_ context.Context, userID string, msgs ...ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &memorySession{}
		s.sessions[userID] = sess
	}
	sess.msgs = append(sess.msgs, msgs...)
	if over := len(sess.msgs) - s.capacity; over > 0 {
		sess.msgs = append([]ChatMessage(nil), sess.msgs[over:]...)
	}
	sess.touched = s.now()
	return nil
}

func (s *MemorySessionStore) History(_ context.Context, userID string) ([]ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || s.now().Sub(sess.touched) > s.ttl {
		return nil, nil
	}
	return append([]ChatMessage(nil), sess.msgs...), nil
}

func (s *MemorySessionStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Close stops the expiry janitor.
func (s *MemorySessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemorySessionStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *MemorySessionStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
