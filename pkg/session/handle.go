package session

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessiontier/pkg/async"
	"github.com/dmitrymomot/sessiontier/pkg/clientip"
)

// RequestInfo is what Login records about the requester.
type RequestInfo struct {
	RemoteAddr string
	UserAgent  string
}

var connectionResolver = clientip.New()

// RequestInfoFrom reads the connection address and user agent. Proxy headers
// are ignored; use RequestInfoResolver behind a trusted proxy.
func RequestInfoFrom(r *http.Request) RequestInfo {
	return requestInfo(connectionResolver, r)
}

// RequestInfoResolver returns a RequestInfo reader that resolves the address
// with res. Pass it to WithRequestInfo.
func RequestInfoResolver(res *clientip.Resolver) func(*http.Request) RequestInfo {
	if res == nil {
		res = connectionResolver
	}
	return func(r *http.Request) RequestInfo {
		return requestInfo(res, r)
	}
}

func requestInfo(res *clientip.Resolver, r *http.Request) RequestInfo {
	return RequestInfo{
		RemoteAddr: res.Resolve(r),
		UserAgent:  r.UserAgent(),
	}
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithClock replaces time.Now for freshness checks and login stamps.
func WithClock(now func() time.Time) HandleOption {
	return func(h *Handle) {
		if now != nil {
			h.now = now
		}
	}
}

// Handle adds login state to a session: promotion through Login, the
// IsLoggedIn/IsGuest/IsFresh predicates and asynchronous persistence.
//
// A Handle belongs to one request. It holds no lock, so concurrent use
// (including reading the session while a SaveAsync or ReloadAsync future is
// pending) must be serialized by the caller.
type Handle struct {
	sess  *Session
	store Store
	req   RequestInfo
	now   func() time.Time

	// saved is called after a successful SaveAsync with the stored session.
	saved func(*Session)
}

// NewHandle wraps sess. A nil sess starts an empty guest session.
func NewHandle(sess *Session, store Store, req RequestInfo, opts ...HandleOption) *Handle {
	if sess == nil {
		sess = &Session{}
	}
	h := &Handle{
		sess:  sess,
		store: store,
		req:   req,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Session returns the wrapped session.
func (h *Handle) Session() *Session { return h.sess }

// ID returns the current session identifier.
func (h *Handle) ID() string { return h.sess.ID }

// Login regenerates the session identifier and then records the login time,
// requester address and user agent. The session is fresh afterwards.
//
// If regeneration fails the session is restored to its state before the call
// and the store's error is returned as is.
func (h *Handle) Login(ctx context.Context) error {
	before := h.sess.Clone()
	if err := h.store.Regenerate(ctx, h.sess); err != nil {
		*h.sess = *before
		return err
	}

	now := h.now()
	h.sess.LoggedInAt = &now
	h.sess.RemoteAddr = h.req.RemoteAddr
	h.sess.UserAgent = h.req.UserAgent
	return nil
}

// IsLoggedIn reports whether a login has been recorded.
func (h *Handle) IsLoggedIn() bool { return h.sess.IsLoggedIn() }

// IsGuest is the negation of IsLoggedIn.
func (h *Handle) IsGuest() bool { return !h.sess.IsLoggedIn() }

// IsFresh reports whether the login happened less than FreshnessWindow ago.
func (h *Handle) IsFresh() bool { return h.sess.IsFreshAt(h.now()) }

// Tier classifies the session now.
func (h *Handle) Tier() Tier { return h.sess.TierAt(h.now()) }

// SaveAsync persists the session. The future resolves once the store has
// confirmed the write and carries the store's error unchanged.
func (h *Handle) SaveAsync(ctx context.Context) *async.Future[struct{}] {
	return async.Run(ctx, func(ctx context.Context) error {
		if err := h.store.Save(ctx, h.sess); err != nil {
			return err
		}
		if h.saved != nil {
			h.saved(h.sess)
		}
		return nil
	})
}

// ReloadAsync refreshes the session from the store. A missing record
// (typically ErrSessionNotFound) should be treated as a logout.
func (h *Handle) ReloadAsync(ctx context.Context) *async.Future[struct{}] {
	return async.Run(ctx, func(ctx context.Context) error {
		return h.store.Reload(ctx, h.sess)
	})
}

// Destroy removes the session from the store. Afterwards the handle reports
// a guest with no identifier.
func (h *Handle) Destroy(ctx context.Context) error {
	return h.store.Destroy(ctx, h.sess)
}
