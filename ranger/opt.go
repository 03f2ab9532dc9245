package ranger

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/admin"
	"github.com/xy-planning-network/acrsample/http/router"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/logger"
	"github.com/xy-planning-network/acrsample/postgres"
)

// A RangerOption configures a *Ranger either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some RangerOptions require data in others and thus an OptFollowup can be returned
// in order to be called at a later time when that data is available.
//
// WithLogger is an example of the first.
// An unexported field on the passed in *Ranger is updated with the enclosed value.
//
// WithRoutes is an example of the second.
// The routes are only registered when the closure it returns is called,
// after the *Ranger's router exists.
type RangerOption func(rng *Ranger) (OptFollowup, error)
type OptFollowup func() error

// WithContext exposes the provided context.Context to the app.
func WithContext(ctx context.Context) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if ctx == nil {
			return nil, fmt.Errorf("%w: context cannot be nil", acrsample.ErrBadConfig)
		}

		rng.ctx = ctx
		return nil, nil
	}
}

// WithDB exposes the provided *postgres.DB to the app.
//
// WithDB assumes a connection has already been established.
// Unless WithUserStore is also used, users are stored in db.
func WithDB(db *postgres.DB) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if db == nil {
			return nil, fmt.Errorf("%w: db cannot be nil", acrsample.ErrBadConfig)
		}

		rng.db = db
		return nil, nil
	}
}

// WithEnv casts the provided string into a valid Environment,
// or, reads from the ENVIRONMENT environment variable a valid Environment.
//
// If both fail, the Environment is Development.
func WithEnv(envVar string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		e := acrsample.Environment(strings.ToUpper(envVar))
		if e.Valid() != nil {
			e = acrsample.EnvVarOrEnv(environmentEnvVar, acrsample.Development)
		}

		rng.env = e
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the app.
func WithLogger(l logger.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if l == nil {
			return nil, fmt.Errorf("%w: logger cannot be nil", acrsample.ErrBadConfig)
		}

		rng.l = l
		return nil, nil
	}
}

// WithRoutes constructs a followup option that, when called,
// registers routes alongside the app's own.
func WithRoutes(routes ...router.Route) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		return func() error {
			if err := rng.Router.UnauthedRoutes(routes); err != nil {
				return err
			}

			rng.l.Debug(fmt.Sprintf("registered %d additional routes", len(routes)), nil)
			return nil
		}, nil
	}
}

// WithServer exposes the *http.Server to the app.
// The server's Handler is replaced with the app's router.
func WithServer(s *http.Server) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if s == nil {
			return nil, fmt.Errorf("%w: server cannot be nil", acrsample.ErrBadConfig)
		}

		rng.srv = s
		return nil, nil
	}
}

// WithSessionStore exposes the session.SessionStorer to the app.
func WithSessionStore(store session.SessionStorer) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if store == nil {
			return nil, fmt.Errorf("%w: session store cannot be nil", acrsample.ErrBadConfig)
		}

		rng.sessions = store
		return nil, nil
	}
}

// WithSiteOpts passes opts to the admin site when it is constructed.
// They apply after the defaults ranger sets, so they win.
func WithSiteOpts(opts ...admin.SiteOpt) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.siteOpts = append(rng.siteOpts, opts...)
		return nil, nil
	}
}

// WithThrottle sets the admin.Throttle counting failed admin logins.
func WithThrottle(t admin.Throttle) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if t == nil {
			return nil, fmt.Errorf("%w: throttle cannot be nil", acrsample.ErrBadConfig)
		}

		rng.throttle = t
		return nil, nil
	}
}

// WithUserStore sets where users authenticating to the admin site are found.
//
// With a UserStore, no database connection is made unless WithDB is also used.
func WithUserStore(users admin.UserStore) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if users == nil {
			return nil, fmt.Errorf("%w: user store cannot be nil", acrsample.ErrBadConfig)
		}

		rng.users = users
		return nil, nil
	}
}
