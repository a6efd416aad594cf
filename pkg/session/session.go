package session

import (
	"maps"
	"time"
)

// FreshnessWindow is how long after a login a session counts as fresh.
const FreshnessWindow = 10 * time.Minute

// Session is the state persisted for one client.
//
// LoggedInAt is nil for guests. Its presence, not its value, decides whether
// the session is logged in: a login stamped at the zero instant still counts.
type Session struct {
	ID         string         `json:"id"`
	LoggedInAt *time.Time     `json:"logged_in_at,omitempty"`
	RemoteAddr string         `json:"remote_addr,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// IsLoggedIn reports whether a login was recorded.
func (s *Session) IsLoggedIn() bool {
	return s != nil && s.LoggedInAt != nil
}

// IsFreshAt reports whether the login happened less than FreshnessWindow
// before now. The boundary itself is stale.
func (s *Session) IsFreshAt(now time.Time) bool {
	return s.IsLoggedIn() && now.Sub(*s.LoggedInAt) < FreshnessWindow
}

// TierAt classifies the session at the given instant.
func (s *Session) TierAt(now time.Time) Tier {
	switch {
	case !s.IsLoggedIn():
		return TierGuest
	case s.IsFreshAt(now):
		return TierFresh
	default:
		return TierStale
	}
}

// Get retrieves a value from session data
func (s *Session) Get(key string) (any, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	v, ok := s.Data[key]
	return v, ok
}

// GetString retrieves a string value from session data
func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Set stores a value in session data
func (s *Session) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// Delete removes a value from session data
func (s *Session) Delete(key string) {
	if s == nil || s.Data == nil {
		return
	}
	delete(s.Data, key)
}

// Clone returns a copy that shares no mutable state with s.
// Data values are copied shallowly.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.LoggedInAt != nil {
		t := *s.LoggedInAt
		c.LoggedInAt = &t
	}
	if s.Data != nil {
		c.Data = maps.Clone(s.Data)
	}
	return &c
}

// Tier is the privilege level a session grants.
type Tier uint8

const (
	// TierGuest: no login recorded.
	TierGuest Tier = iota
	// TierStale: logged in, freshness window elapsed.
	TierStale
	// TierFresh: logged in within FreshnessWindow.
	TierFresh
)

func (t Tier) String() string {
	switch t {
	case TierGuest:
		return "guest"
	case TierStale:
		return "stale"
	case TierFresh:
		return "fresh"
	default:
		return "unknown"
	}
}
