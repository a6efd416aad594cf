package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessiontier/pkg/clientip"
	"github.com/dmitrymomot/sessiontier/pkg/session"
)

// spyBackend counts writes on top of a MemoryBackend and can inject errors.
type spyBackend struct {
	*session.MemoryBackend
	sets      atomic.Int32
	touches   atomic.Int32
	getErr    error
	deleteErr error
	touchErr  error
}

func (b *spyBackend) Get(ctx context.Context, id string) (*session.Session, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.MemoryBackend.Get(ctx, id)
}

func (b *spyBackend) Set(ctx context.Context, s *session.Session, ttl time.Duration) error {
	b.sets.Add(1)
	return b.MemoryBackend.Set(ctx, s, ttl)
}

func (b *spyBackend) Delete(ctx context.Context, id string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.MemoryBackend.Delete(ctx, id)
}

func (b *spyBackend) Touch(ctx context.Context, id string, ttl time.Duration) error {
	b.touches.Add(1)
	if b.touchErr != nil {
		return b.touchErr
	}
	return b.MemoryBackend.Touch(ctx, id, ttl)
}

// browser replays the session cookie the way a user agent would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (b *browser) do(method, path string) *httptest.ResponseRecorder {
	b.t.Helper()
	r := httptest.NewRequest(method, path, nil)
	r.Header.Set("User-Agent", "browser-test")
	if b.cookie != nil {
		r.AddCookie(&http.Cookie{Name: b.cookie.Name, Value: b.cookie.Value})
	}

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, r)

	for _, c := range w.Result().Cookies() {
		if c.Name != "sid" {
			continue
		}
		if c.MaxAge < 0 {
			b.cookie = nil
		} else {
			b.cookie = c
		}
	}
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	return nil
}

func newApp(t *testing.T, clock *fakeClock, backend session.Backend, opts ...session.Option) http.Handler {
	t.Helper()
	m := newManager(t, clock, backend, opts...)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux := http.NewServeMux()
	mux.Handle("/", ok)
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		h := session.MustFromContext(r.Context())
		if err := h.Login(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/login/save", func(w http.ResponseWriter, r *http.Request) {
		h := session.MustFromContext(r.Context())
		if err := h.Login(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := h.SaveAsync(r.Context()).Await(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Has("cart") {
			h.Session().Set("cart", "book")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		h := session.MustFromContext(r.Context())
		if err := h.Destroy(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Session().Set("cart", "book")
		_, _ = w.Write([]byte("added"))
	})
	mux.Handle("/secure", session.RequireLoggedIn(ok))
	mux.Handle("/secure/more", session.RequireFresh(ok))

	return m.Middleware(mux)
}

func TestMiddleware_UntouchedGuestIsNotStored(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := session.NewMemoryBackend(0)
	b := &browser{t: t, handler: newApp(t, clock, backend)}

	w := b.do(http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, sessionCookie(w))
	total, _ := backend.Stats()
	assert.Zero(t, total)
}

func TestMiddleware_SaveUninitialized(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := session.NewMemoryBackend(0)
	b := &browser{t: t, handler: newApp(t, clock, backend, session.WithSaveUninitialized(true))}

	w := b.do(http.MethodGet, "/")

	require.NotNil(t, sessionCookie(w))
	total, loggedIn := backend.Stats()
	assert.Equal(t, 1, total)
	assert.Zero(t, loggedIn)
}

func TestMiddleware_ModifiedGuestIsStored(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := session.NewMemoryBackend(0)
	b := &browser{t: t, handler: newApp(t, clock, backend)}

	w := b.do(http.MethodGet, "/cart")

	assert.Equal(t, "added", w.Body.String())
	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)

	total, _ := backend.Stats()
	assert.Equal(t, 1, total)
}

func TestMiddleware_LoginRotatesID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := session.NewMemoryBackend(0)
	b := &browser{t: t, handler: newApp(t, clock, backend)}

	b.do(http.MethodGet, "/cart")
	require.NotNil(t, b.cookie)
	guestCookie := b.cookie.Value

	w := b.do(http.MethodPost, "/login")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, b.cookie)
	assert.NotEqual(t, guestCookie, b.cookie.Value)

	// id-1 was the guest; regeneration issued id-2
	_, err := backend.Get(ctx, "id-1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	stored, err := backend.Get(ctx, "id-2")
	require.NoError(t, err)
	require.NotNil(t, stored.LoggedInAt)
	assert.True(t, stored.LoggedInAt.Equal(clock.Now()))
	assert.Equal(t, "192.0.2.1", stored.RemoteAddr)
	assert.Equal(t, "browser-test", stored.UserAgent)
	_, hasCart := stored.Get("cart")
	assert.False(t, hasCart)
}

func TestMiddleware_TierGuards(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := &browser{t: t, handler: newApp(t, clock, session.NewMemoryBackend(0))}

	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/secure").Code)
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/secure/more").Code)

	require.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/login").Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/secure").Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/secure/more").Code)

	clock.Advance(session.FreshnessWindow - time.Second)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/secure/more").Code)

	clock.Advance(time.Second)
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/secure/more").Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/secure").Code)

	require.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/login").Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/secure/more").Code)
}

func TestMiddleware_Logout(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := session.NewMemoryBackend(0)
	b := &browser{t: t, handler: newApp(t, clock, backend)}

	b.do(http.MethodPost, "/login")
	require.NotNil(t, b.cookie)

	w := b.do(http.MethodPost, "/logout")
	require.Equal(t, http.StatusNoContent, w.Code)

	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)
	assert.Nil(t, b.cookie)

	total, _ := backend.Stats()
	assert.Zero(t, total)
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/secure").Code)
}

func TestMiddleware_ResaveAndTouch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		resave      bool
		wantSets    int32
		wantTouches int32
	}{
		{name: "touch unmodified", resave: false, wantSets: 0, wantTouches: 1},
		{name: "resave unmodified", resave: true, wantSets: 1, wantTouches: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
			backend := &spyBackend{MemoryBackend: session.NewMemoryBackend(0)}
			b := &browser{t: t, handler: newApp(t, clock, backend, session.WithResave(tt.resave))}

			b.do(http.MethodPost, "/login")
			backend.sets.Store(0)
			backend.touches.Store(0)

			clock.Advance(time.Minute)
			w := b.do(http.MethodGet, "/secure")

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantSets, backend.sets.Load())
			assert.Equal(t, tt.wantTouches, backend.touches.Load())
			assert.NotNil(t, sessionCookie(w), "cookie is re-sent to extend its lifetime")
		})
	}
}

func TestMiddleware_SavedSessionIsNotWrittenTwice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		wantSets int32
		wantCart bool
	}{
		{name: "unchanged after save", path: "/login/save", wantSets: 1},
		{name: "changed after save", path: "/login/save?cart", wantSets: 2, wantCart: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
			backend := &spyBackend{MemoryBackend: session.NewMemoryBackend(0)}
			b := &browser{t: t, handler: newApp(t, clock, backend)}

			w := b.do(http.MethodPost, tt.path)
			require.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantSets, backend.sets.Load())
			require.NotNil(t, sessionCookie(w))

			stored, err := backend.Get(context.Background(), "id-2")
			require.NoError(t, err)
			assert.NotNil(t, stored.LoggedInAt)
			_, hasCart := stored.Get("cart")
			assert.Equal(t, tt.wantCart, hasCart)

			assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/secure/more").Code)
		})
	}
}

func TestMiddleware_FailedTouchSendsNoToken(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := &spyBackend{MemoryBackend: session.NewMemoryBackend(0)}
	b := &browser{t: t, handler: newApp(t, clock, backend)}

	b.do(http.MethodPost, "/login")
	require.NotNil(t, b.cookie)

	backend.touchErr = session.ErrSessionNotFound
	w := b.do(http.MethodGet, "/secure")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), backend.touches.Load())
	assert.Nil(t, sessionCookie(w))
}

func TestMiddleware_ForgedCookieStartsGuest(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := session.NewMemoryBackend(0)
	b := &browser{t: t, handler: newApp(t, clock, backend)}

	b.do(http.MethodPost, "/login")
	require.NotNil(t, b.cookie)
	b.cookie = &http.Cookie{Name: "sid", Value: "s:id-2.forged"}

	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/secure").Code)
}

func TestMiddleware_BackendFailure(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := &spyBackend{MemoryBackend: session.NewMemoryBackend(0)}
	b := &browser{t: t, handler: newApp(t, clock, backend)}

	b.do(http.MethodPost, "/login")
	require.NotNil(t, b.cookie)

	backend.getErr = assert.AnError
	assert.Equal(t, http.StatusInternalServerError, b.do(http.MethodGet, "/secure").Code)

	backend.getErr = session.ErrSessionExpired
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/secure").Code)
}

func TestMiddleware_HeaderTransport(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	handler := newApp(t, clock, session.NewMemoryBackend(0),
		session.WithTransport(session.NewHeaderTransport("X-Session", "Session ")))

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)

	token := w.Header().Get("X-Session")
	require.Equal(t, "Session id-2", token)
	assert.NotEmpty(t, w.Header().Get("X-Session-Expires"))

	r = httptest.NewRequest(http.MethodGet, "/secure/more", nil)
	r.Header.Set("X-Session", token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_LoginRecordsClientAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []session.Option
		want string
	}{
		{name: "connection address by default", want: "198.51.100.9"},
		{
			name: "trusted proxy header",
			opts: []session.Option{session.WithRequestInfo(session.RequestInfoResolver(clientip.New("X-Forwarded-For")))},
			want: "1.2.3.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
			backend := session.NewMemoryBackend(0)
			opts := append([]session.Option{session.WithTransport(session.NewHeaderTransport("X-Session", ""))}, tt.opts...)
			handler := newApp(t, clock, backend, opts...)

			r := httptest.NewRequest(http.MethodPost, "/login", nil)
			r.RemoteAddr = "198.51.100.9:5555"
			r.Header.Set("X-Forwarded-For", "1.2.3.4")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			require.Equal(t, http.StatusNoContent, w.Code)

			stored, err := backend.Get(context.Background(), "id-2")
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.RemoteAddr)
		})
	}
}

func TestRequestInfoFrom(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[2001:db8::1]:443"
	r.Header.Set("User-Agent", "agent")
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	r.Header.Set("X-Real-IP", "5.6.7.8")
	r.Header.Set("CF-Connecting-IP", "9.9.9.9")

	assert.Equal(t, session.RequestInfo{RemoteAddr: "2001:db8::1", UserAgent: "agent"}, session.RequestInfoFrom(r))
	assert.Equal(t, "9.9.9.9", session.RequestInfoResolver(clientip.New(clientip.DefaultHeaders...))(r).RemoteAddr)
	assert.Equal(t, "2001:db8::1", session.RequestInfoResolver(nil)(r).RemoteAddr)
}

func TestFromContext(t *testing.T) {
	t.Parallel()
	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { session.MustFromContext(context.Background()) })

	h := session.NewHandle(nil, &fakeStore{}, session.RequestInfo{})
	got, ok := session.FromContext(session.WithHandle(context.Background(), h))
	assert.True(t, ok)
	assert.Same(t, h, got)
}
