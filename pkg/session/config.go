package session

import "time"

// Config holds session configuration
type Config struct {
	// Secrets signs the session cookie: comma separated, the first one signs,
	// all of them verify. Required for the default cookie transport.
	Secrets string `env:"SESSION_SECRETS"`

	// CookieName is the name of the session cookie (default: "sid")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// Resave writes sessions back on every request even when unmodified.
	Resave bool `env:"SESSION_RESAVE" envDefault:"false"`

	// SaveUninitialized stores new sessions that the request did not modify.
	SaveUninitialized bool `env:"SESSION_SAVE_UNINITIALIZED" envDefault:"false"`

	// TTL is the lifetime of a stored session, renewed on every save or touch.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// CleanupInterval for the in-memory backend (0 to disable)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// SecureCookies enables the Secure flag on session cookies (recommended for production)
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName:        "sid",
		Resave:            false,
		SaveUninitialized: false,
		TTL:               24 * time.Hour,
		CleanupInterval:   5 * time.Minute,
		SecureCookies:     false,
	}
}
