package session

import "errors"

var (
	// ErrInvalidSession indicates a session without an id was passed to a backend
	ErrInvalidSession = errors.New("session.invalid")

	// ErrSessionExpired indicates the session has expired
	ErrSessionExpired = errors.New("session.expired")

	// ErrSessionNotFound indicates no session was found
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrIDGeneration indicates the random source failed while generating an id
	ErrIDGeneration = errors.New("session.id_generation_failed")
)
