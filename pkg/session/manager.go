package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessiontier/pkg/cookie"
	"github.com/dmitrymomot/sessiontier/pkg/logger"
)

// Manager is the configured session store: it implements Store on top of a
// Backend and wires sessions into HTTP requests through a Transport.
type Manager struct {
	backend       Backend
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	newID         IDFunc
	now           func() time.Time
	requestInfo   func(*http.Request) RequestInfo
	logger        *slog.Logger
}

var _ Store = (*Manager)(nil)

// New creates a new session manager with the given options
func New(opts ...Option) *Manager {
	m := &Manager{
		config:      DefaultConfig(),
		newID:       GenerateID,
		now:         time.Now,
		requestInfo: RequestInfoFrom,
		logger:      logger.Discard(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.backend == nil {
		m.backend = NewMemoryBackend(m.config.CleanupInterval)
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			// Fail fast on misconfiguration to prevent insecure runtime behavior
			panic("session: cookie manager is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.cookieManager, m.config.CookieName, m.config.SecureCookies)
	}

	return m
}

// NewFromConfig creates a Manager from cfg. When cfg.Secrets is set a signed
// cookie transport is built from it; otherwise a transport must be supplied
// through opts.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	configOpts := []Option{WithConfig(cfg)}

	if secrets := cookie.ParseSecrets(cfg.Secrets); len(secrets) > 0 {
		cm, err := cookie.New(secrets)
		if err != nil {
			return nil, err
		}
		configOpts = append(configOpts, WithCookieManager(cm))
	}

	return New(append(configOpts, opts...)...), nil
}

// Backend returns the persistence backend.
func (m *Manager) Backend() Backend { return m.backend }

// RequestInfo reads r the way Login will record it.
func (m *Manager) RequestInfo(r *http.Request) RequestInfo { return m.requestInfo(r) }

// Regenerate deletes the stored session and replaces s with a new, empty
// guest session under a fresh id. The new session is stored on the next Save.
// On failure s is left as it was.
func (m *Manager) Regenerate(ctx context.Context, s *Session) error {
	id, err := m.newID()
	if err != nil {
		return err
	}

	if s.ID != "" {
		if err := m.backend.Delete(ctx, s.ID); err != nil {
			return err
		}
	}

	*s = *m.newSession(id)
	return nil
}

// Save stores s for Config.TTL and updates its ExpiresAt once the backend
// has accepted the write.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s.ID == "" {
		return ErrInvalidSession
	}

	c := s.Clone()
	c.ExpiresAt = m.now().Add(m.config.TTL)
	if err := m.backend.Set(ctx, c, m.config.TTL); err != nil {
		return err
	}

	s.ExpiresAt = c.ExpiresAt
	return nil
}

// Reload overwrites s with the stored copy.
func (m *Manager) Reload(ctx context.Context, s *Session) error {
	if s.ID == "" {
		return ErrSessionNotFound
	}

	stored, err := m.backend.Get(ctx, s.ID)
	if err != nil {
		return err
	}

	*s = *stored
	return nil
}

// Destroy deletes the stored session and empties s.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	if s.ID != "" {
		if err := m.backend.Delete(ctx, s.ID); err != nil {
			return err
		}
	}

	*s = Session{}
	return nil
}

// Start returns a handle for the session referenced by the request, or for a
// new unsaved guest session when there is none. Only backend failures other
// than a missing or expired session are returned as errors.
func (m *Manager) Start(ctx context.Context, r *http.Request) (*Handle, error) {
	sess, err := m.load(ctx, r)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		id, err := m.newID()
		if err != nil {
			return nil, err
		}
		sess = m.newSession(id)
	}

	return m.NewHandle(sess, m.requestInfo(r)), nil
}

// NewHandle wraps sess with this manager as its store.
func (m *Manager) NewHandle(sess *Session, req RequestInfo) *Handle {
	return NewHandle(sess, m, req, WithClock(m.now))
}

// load returns nil, nil when the request has no usable session.
func (m *Manager) load(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil || token == "" {
		return nil, nil
	}

	sess, err := m.backend.Get(ctx, token)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return nil, nil
	default:
		return nil, err
	}
}

func (m *Manager) newSession(id string) *Session {
	now := m.now()
	return &Session{
		ID:        id,
		Data:      make(map[string]any),
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.TTL),
	}
}
