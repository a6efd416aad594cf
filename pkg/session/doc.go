// Package session implements two-tier web sessions. A session is a guest or
// logged in, and a logged in session may additionally be fresh.
//
// Logging in (Handle.Login) rotates the session id to prevent fixation and
// stamps the login time together with the requester address and user agent.
// For the following FreshnessWindow (10 minutes) the session is fresh and may
// reach privileged areas; afterwards it stays logged in with lower privilege
// until the user logs in again.
//
// # Architecture
//
// Handle is the per-request view of a session. It only knows the Store
// interface, so it can run against any session layer:
//
//	┌────────┐  Regenerate/Save/Reload/Destroy  ┌─────────┐  Get/Set/Delete  ┌─────────┐
//	│ Handle │ ───────────────────────────────► │ Manager │ ───────────────► │ Backend │
//	└────────┘                                  └─────────┘                  └─────────┘
//	                                                 │ token
//	                                                 ▼
//	                                            ┌───────────┐
//	                                            │ Transport │ (signed cookie, header)
//	                                            └───────────┘
//
// Manager is the Store used in HTTP services. Its Middleware loads or creates
// the session for each request, exposes the Handle through the request
// context and commits changes right before the response is written, honoring
// Config.Resave and Config.SaveUninitialized. Backends live in subpackages
// (redisstore, mongostore, pgstore); MemoryBackend ships here.
//
// # Usage
//
//	mgr, err := session.NewFromConfig(cfg, session.WithBackend(backend))
//	if err != nil {
//	    return err
//	}
//
//	r := chi.NewRouter()
//	r.Use(mgr.Middleware)
//	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
//	    h := session.MustFromContext(r.Context())
//	    if err := h.Login(r.Context()); err != nil {
//	        http.Error(w, "login failed", http.StatusInternalServerError)
//	        return
//	    }
//	    if _, err := h.SaveAsync(r.Context()).Await(); err != nil {
//	        http.Error(w, "login failed", http.StatusInternalServerError)
//	        return
//	    }
//	})
//	r.With(session.RequireLoggedIn).Get("/secure", secure)
//	r.With(session.RequireFresh).Get("/secure/more", secureMore)
//
// # Error Handling
//
// Handle never wraps, logs or retries store errors; Login, SaveAsync,
// ReloadAsync and Destroy return exactly what the Store returned. A failed
// Login leaves the session as it was. Backends report missing records as
// ErrSessionNotFound or ErrSessionExpired; a failed ReloadAsync with either
// should be treated as a logout.
//
// # Concurrency
//
// Backends and Manager are safe for concurrent use. A Handle is not: use one
// per request and await SaveAsync/ReloadAsync futures before touching the
// session again.
package session
