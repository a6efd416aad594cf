package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in process memory. It is safe for concurrent
// use and suits tests and single-instance deployments.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
	ticker   *time.Ticker
	done     chan struct{}
	closing  sync.Once
}

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time // zero: never
}

func (e memoryEntry) session() *Session {
	s := e.sess.Clone()
	s.ExpiresAt = e.expiresAt
	return s
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithMemoryClock replaces time.Now for expiry decisions.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryBackend creates a backend that purges expired sessions every
// cleanupInterval; zero disables the background purge.
func NewMemoryBackend(cleanupInterval time.Duration, opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if cleanupInterval > 0 {
		m.ticker = time.NewTicker(cleanupInterval)
		go m.cleanupLoop()
	}

	return m
}

// Get returns a copy of the stored session.
func (m *MemoryBackend) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	if !m.expired(e) {
		return e.session(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A Set may have replaced the entry since the read lock was released.
	cur, ok := m.sessions[id]
	if ok && !m.expired(cur) {
		return cur.session(), nil
	}
	if ok {
		delete(m.sessions, id)
	}
	return nil, ErrSessionExpired
}

// Set stores a copy of s. A non-positive ttl never expires.
func (m *MemoryBackend) Set(ctx context.Context, s *Session, ttl time.Duration) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSession
	}

	e := memoryEntry{sess: s.Clone()}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.sessions[s.ID] = e
	m.mu.Unlock()
	return nil
}

// Delete removes a session; unknown ids are not an error.
func (m *MemoryBackend) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Touch extends the lifetime of a stored session.
func (m *MemoryBackend) Touch(ctx context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || m.expired(e) {
		return ErrSessionNotFound
	}

	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	m.sessions[id] = e
	return nil
}

// DeleteExpired removes all expired sessions
func (m *MemoryBackend) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Stats counts stored sessions, split by login state.
func (m *MemoryBackend) Stats() (total, loggedIn int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.sessions {
		total++
		if e.sess.IsLoggedIn() {
			loggedIn++
		}
	}
	return total, loggedIn
}

// Close stops the cleanup goroutine
func (m *MemoryBackend) Close() error {
	m.closing.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryBackend) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

func (m *MemoryBackend) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
