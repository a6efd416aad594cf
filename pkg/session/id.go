package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// IDFunc produces new session identifiers.
type IDFunc func() (string, error)

// GenerateID returns 32 random bytes encoded as unpadded base64url.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrIDGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
