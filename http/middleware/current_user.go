package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/logger"
)

// A User is the minimum set of behaviors an authenticated principal must expose.
type User interface {
	HasAccess() bool
	HomePath() string
}

// A UserStorer retrieves the User a session points at.
type UserStorer func(ctx context.Context, id uint) (User, error)

// CurrentUser pulls the User out of the session stored under acrsample.SessionKey
// and stores it in the request context under acrsample.CurrentUserKey.
//
// A session pointing at a missing or deactivated User is cleared
// and the request continues unauthenticated.
//
// If the UserStorer errors unexpectedly, CurrentUser logs a warning
// and the request continues unauthenticated, leaving the session alone.
func CurrentUser(d *resp.Responder, l logger.Logger, storer UserStorer) Adapter {
	if d == nil || storer == nil {
		return NoopAdapter
	}

	if l == nil {
		l = logger.New()
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := d.Session(r.Context())
			if err != nil {
				h.ServeHTTP(w, r)
				return
			}

			id, err := s.UserID()
			if err != nil {
				h.ServeHTTP(w, r)
				return
			}

			user, err := storer(r.Context(), id)
			switch {
			case errors.Is(err, acrsample.ErrNotFound), errors.Is(err, acrsample.ErrNotExist):
				forget(w, r, s)
				h.ServeHTTP(w, r)
				return
			case err != nil:
				l.Warn("could not load current user", &logger.LogContext{
					Data:    map[string]any{"user_id": id},
					Error:   err,
					Request: r,
				})
				h.ServeHTTP(w, r)
				return
			case !user.HasAccess():
				forget(w, r, s)
				h.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), acrsample.CurrentUserKey, user)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// forget drops the user id from the session.
func forget(w http.ResponseWriter, r *http.Request, s session.Session) {
	// NOTE: a failed write leaves a stale id which the next request retries
	_ = s.DeregisterUser(w, r)
}

// RequireUnauthed redirects a request carrying a User to that User's HomePath.
func RequireUnauthed() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(acrsample.CurrentUserKey).(User)
			if !ok {
				h.ServeHTTP(w, r)
				return
			}

			http.Redirect(w, r, user.HomePath(), http.StatusFound)
		})
	}
}
