package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

const (
	minSecretLength = 32
	signedPrefix    = "s:"
)

// Manager writes and reads cookies with shared defaults. Signed values are
// authenticated with HMAC-SHA256; the first secret signs, every secret verifies.
type Manager struct {
	secrets  []string
	defaults Options
}

// New returns a Manager. Empty secrets are ignored; at least one remaining
// secret is required and every secret must be minSecretLength or longer.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := applyOptions(Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, opts)

	return &Manager{
		secrets:  secrets,
		defaults: defaults,
	}, nil
}

// ParseSecrets splits a comma separated list, dropping blanks.
func ParseSecrets(list string) []string {
	var secrets []string
	for s := range strings.SplitSeq(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	o := applyOptions(m.defaults, opts)

	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	}
	if o.MaxAge > 0 {
		c.Expires = time.Now().Add(time.Duration(o.MaxAge) * time.Second)
	}

	http.SetCookie(w, c)
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Delete expires the cookie using the manager defaults merged with opts.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	o := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
}

// SetSigned stores value as "s:<value>.<mac>".
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) {
	m.Set(w, name, m.Sign(value), opts...)
}

// GetSigned returns the verified value of a cookie written by SetSigned.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.Unsign(raw)
}

// Sign returns the signed form of value.
func (m *Manager) Sign(value string) string {
	return signedPrefix + value + "." + mac(m.secrets[0], value)
}

// Unsign verifies signed against every configured secret, which keeps
// cookies issued before a rotation valid until the old secret is removed.
func (m *Manager) Unsign(signed string) (string, error) {
	rest, ok := strings.CutPrefix(signed, signedPrefix)
	if !ok {
		return "", ErrInvalidFormat
	}

	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 || dot == len(rest)-1 {
		return "", ErrInvalidFormat
	}
	value, sig := rest[:dot], rest[dot+1:]

	for _, secret := range m.secrets {
		if subtle.ConstantTimeCompare([]byte(sig), []byte(mac(secret, value))) == 1 {
			return value, nil
		}
	}

	return "", ErrInvalidSignature
}

func mac(secret, value string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
