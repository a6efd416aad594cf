package main

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("sessiond.invalid_credentials")

// credentials holds the single demo account.
type credentials struct {
	username string
	hash     []byte
}

func newCredentials(username, hash string) (*credentials, error) {
	if hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte("demo"), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &credentials{username: username, hash: []byte(hash)}, nil
}

func (c *credentials) verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	// bcrypt runs for unknown usernames too.
	passErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	if !userOK || passErr != nil {
		return errInvalidCredentials
	}
	return nil
}
