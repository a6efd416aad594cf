package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessiontier/pkg/binder"
	"github.com/dmitrymomot/sessiontier/pkg/httpserver"
	"github.com/dmitrymomot/sessiontier/pkg/logger"
	"github.com/dmitrymomot/sessiontier/pkg/requestid"
	"github.com/dmitrymomot/sessiontier/pkg/session"
	"github.com/dmitrymomot/sessiontier/pkg/session/instrument"
)

const usernameKey = "username"

type server struct {
	sessions *session.Manager
	creds    *credentials
	metrics  *instrument.Metrics
	log      *slog.Logger
}

func (s *server) routes(checks ...httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer)

	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(s.log, checks...))
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware, s.metrics.Middleware)

		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Get("/me", s.me)
		r.With(session.RequireLoggedIn).Get("/secure", s.secure)
		r.With(session.RequireFresh).Get("/secure/more", s.secureMore)
	})

	return r
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type sessionResponse struct {
	Tier       string     `json:"tier"`
	LoggedIn   bool       `json:"logged_in"`
	Fresh      bool       `json:"fresh"`
	Username   string     `json:"username,omitempty"`
	LoggedInAt *time.Time `json:"logged_in_at,omitempty"`
}

func describe(h *session.Handle) sessionResponse {
	username, _ := h.Session().GetString(usernameKey)
	return sessionResponse{
		Tier:       h.Tier().String(),
		LoggedIn:   h.IsLoggedIn(),
		Fresh:      h.IsFresh(),
		Username:   username,
		LoggedInAt: h.Session().LoggedInAt,
	}
}

// login accepts JSON or form credentials. A successful login regenerates the
// session and waits for the store before answering.
func (s *server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := session.MustFromContext(ctx)

	var req loginRequest
	if err := binder.Bind(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.creds.verify(req.Username, req.Password); err != nil {
		s.log.InfoContext(ctx, "login rejected", logger.RemoteAddr(s.sessions.RequestInfo(r).RemoteAddr))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := h.Login(ctx); err != nil {
		s.log.ErrorContext(ctx, "session regenerate failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.Session().Set(usernameKey, req.Username)

	if _, err := h.SaveAsync(ctx).AwaitContext(ctx); err != nil {
		s.log.ErrorContext(ctx, "session save failed", logger.SessionID(h.ID()), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.log.InfoContext(ctx, "logged in",
		logger.SessionID(h.ID()),
		logger.Tier(h.Tier().String()),
	)
	writeJSON(w, http.StatusOK, describe(h))
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := session.MustFromContext(ctx)

	if err := h.Destroy(ctx); err != nil {
		s.log.ErrorContext(ctx, "session destroy failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, describe(session.MustFromContext(r.Context())))
}

func (s *server) secure(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged in area"})
}

func (s *server) secureMore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "recently authenticated area"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
