package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/sessiontier/pkg/cookie"
)

// Transport defines how session ids travel between client and server
type Transport interface {
	// GetToken extracts the session id from the request
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session id in the response
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken tells the client to drop the session id
	ClearToken(w http.ResponseWriter) error
}

// CookieTransport carries the session id in a signed cookie
type CookieTransport struct {
	cookieMgr *cookie.Manager
	name      string
	secure    bool
}

// NewCookieTransport creates a cookie transport. The cookie is HttpOnly and
// SameSite=Lax; secure adds the Secure flag.
func NewCookieTransport(cookieMgr *cookie.Manager, name string, secure bool) *CookieTransport {
	return &CookieTransport{
		cookieMgr: cookieMgr,
		name:      name,
		secure:    secure,
	}
}

// GetToken returns ErrSessionNotFound for missing or forged cookies.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.GetSigned(r, t.name)
	if err != nil {
		return "", ErrSessionNotFound
	}
	return token, nil
}

func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	t.cookieMgr.SetSigned(w, t.name, token,
		cookie.WithMaxAge(int(ttl.Seconds())),
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
		cookie.WithSecure(t.secure),
	)
	return nil
}

func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.name, cookie.WithSecure(t.secure))
	return nil
}

// HeaderTransport carries the session id in a request/response header,
// for API clients that do not keep cookies
type HeaderTransport struct {
	header string
	prefix string
}

// NewHeaderTransport creates a header transport expecting "<prefix><id>".
func NewHeaderTransport(header, prefix string) *HeaderTransport {
	return &HeaderTransport{header: header, prefix: prefix}
}

func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	v := r.Header.Get(t.header)
	if v == "" {
		return "", ErrSessionNotFound
	}
	token, ok := strings.CutPrefix(v, t.prefix)
	if !ok || token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	w.Header().Set(t.header, t.prefix+token)
	if ttl > 0 {
		w.Header().Set(t.header+"-Expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	}
	return nil
}

func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.header)
	w.Header().Set(t.header+"-Expires", time.Unix(0, 0).UTC().Format(time.RFC3339))
	return nil
}
