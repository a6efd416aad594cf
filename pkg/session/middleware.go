package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/sessiontier/pkg/logger"
)

// Middleware attaches a Handle to every request and commits the session
// right before the response is written:
//
//   - a destroyed session clears the client token;
//   - a new session the handler did not touch is dropped unless
//     Config.SaveUninitialized is set;
//   - a modified or regenerated session is saved and its token re-sent,
//     unless Handle.SaveAsync already stored it in its current state;
//   - an unmodified session is saved when Config.Resave is set and touched
//     otherwise, if the backend supports it. A failed touch sends no token.
//
// Commit failures are logged: by then the handler has produced its
// response. Handlers needing confirmation must use Handle.SaveAsync.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		h, err := m.Start(ctx, r)
		if err != nil {
			m.logger.ErrorContext(ctx, "session: load failed", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		st := &requestState{
			handle:   h,
			clientID: "",
			initial:  fingerprint(h.sess),
		}
		if token, err := m.transport.GetToken(r); err == nil {
			st.clientID = token
		}
		st.isNew = st.clientID != h.sess.ID
		h.saved = st.markSaved

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() { m.commit(ctx, cw.ResponseWriter, st) }

		next.ServeHTTP(cw, r.WithContext(WithHandle(ctx, h)))
		cw.once.Do(cw.commit)
	})
}

// RequireLoggedIn rejects guests with 401.
func RequireLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := FromContext(r.Context())
		if !ok || !h.IsLoggedIn() {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireFresh rejects sessions outside the freshness window with 401.
func RequireFresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := FromContext(r.Context())
		if !ok || !h.IsFresh() {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestState struct {
	handle   *Handle
	clientID string
	isNew    bool
	initial  []byte

	mu    sync.Mutex
	saved []byte // fingerprint of the last SaveAsync in this request
}

func (st *requestState) markSaved(s *Session) {
	fp := fingerprint(s)
	st.mu.Lock()
	st.saved = fp
	st.mu.Unlock()
}

func (st *requestState) savedAs(fp []byte) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.saved != nil && fp != nil && bytes.Equal(st.saved, fp)
}

func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, st *requestState) {
	s := st.handle.sess

	if s.ID == "" {
		if st.clientID != "" {
			if err := m.transport.ClearToken(w); err != nil {
				m.logger.ErrorContext(ctx, "session: clear token failed", logger.Error(err))
			}
		}
		return
	}

	// A nil fingerprint means the data could not be encoded; count it as a change.
	current := fingerprint(s)
	modified := st.initial == nil || current == nil || !bytes.Equal(st.initial, current)
	rotated := s.ID != st.clientID

	if st.isNew && !modified && !m.config.SaveUninitialized {
		return
	}

	switch {
	case st.savedAs(current):
	case modified || rotated || m.config.Resave:
		if err := m.Save(ctx, s); err != nil {
			m.logger.ErrorContext(ctx, "session: save failed",
				logger.SessionID(s.ID),
				logger.Error(err),
			)
			return
		}
	default:
		if t, ok := m.backend.(Toucher); ok {
			if err := t.Touch(ctx, s.ID, m.config.TTL); err != nil {
				m.logger.WarnContext(ctx, "session: touch failed",
					logger.SessionID(s.ID),
					logger.Error(err),
				)
				return
			}
		}
	}

	if err := m.transport.SetToken(w, s.ID, m.config.TTL); err != nil {
		m.logger.ErrorContext(ctx, "session: set token failed", logger.Error(err))
	}
}

// fingerprint captures everything a handler can change. ExpiresAt is left
// out since only saving moves it.
func fingerprint(s *Session) []byte {
	c := s.Clone()
	c.ExpiresAt = time.Time{}
	b, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return b
}

// commitWriter runs commit once, before the first header or body byte
// reaches the client.
type commitWriter struct {
	http.ResponseWriter
	commit func()
	once   sync.Once
}

func (w *commitWriter) WriteHeader(code int) {
	w.once.Do(w.commit)
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.once.Do(w.commit)
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Flush() {
	w.once.Do(w.commit)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
