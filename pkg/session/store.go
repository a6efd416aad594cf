package session

import (
	"context"
	"time"
)

// Store is what a Handle needs from the session layer. Every method receives
// the in-memory session and either updates it in place or leaves it
// untouched and returns an error.
//
// Manager is the implementation used in HTTP services; tests and callers
// with their own persistence may supply any other.
type Store interface {
	// Regenerate gives the session a new identity and invalidates the old one.
	Regenerate(ctx context.Context, s *Session) error

	// Save persists the in-memory fields. It returns after the write is confirmed.
	Save(ctx context.Context, s *Session) error

	// Reload replaces the in-memory fields with the persisted ones.
	Reload(ctx context.Context, s *Session) error

	// Destroy removes the persisted session and resets s to an empty guest.
	Destroy(ctx context.Context, s *Session) error
}

// Backend is the persistence layer under Manager.
//
// Backends own expiry: Get must return ErrSessionNotFound (or
// ErrSessionExpired) for unknown or expired ids, report the current expiry in
// Session.ExpiresAt and hand out copies, since callers mutate what they
// receive.
type Backend interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Toucher is implemented by backends able to extend a session's lifetime
// without rewriting it.
type Toucher interface {
	Touch(ctx context.Context, id string, ttl time.Duration) error
}
