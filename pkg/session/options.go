package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessiontier/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithBackend sets the persistence backend (default: in-memory)
func WithBackend(b Backend) Option {
	return func(m *Manager) { m.backend = b }
}

// WithTransport sets a custom session transport
func WithTransport(t Transport) Option {
	return func(m *Manager) { m.transport = t }
}

// WithConfig sets custom configuration
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.config = cfg }
}

// WithCookieManager sets the cookie manager for the default cookie transport
func WithCookieManager(cm *cookie.Manager) Option {
	return func(m *Manager) { m.cookieManager = cm }
}

// WithResave toggles saving unmodified sessions on every request
func WithResave(resave bool) Option {
	return func(m *Manager) { m.config.Resave = resave }
}

// WithSaveUninitialized toggles storing new, unmodified sessions
func WithSaveUninitialized(save bool) Option {
	return func(m *Manager) { m.config.SaveUninitialized = save }
}

// WithTTL sets the stored session lifetime
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.config.TTL = ttl }
}

// WithIDFunc replaces the session id generator
func WithIDFunc(fn IDFunc) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithNow replaces the clock used by the manager and the handles it creates
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRequestInfo replaces how the requester address and agent are read
func WithRequestInfo(fn func(*http.Request) RequestInfo) Option {
	return func(m *Manager) {
		if fn != nil {
			m.requestInfo = fn
		}
	}
}

// WithLogger sets the logger used for failures nobody else can observe,
// such as a failed save after the handler returned
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
