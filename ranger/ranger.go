package ranger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/admin"
	"github.com/xy-planning-network/acrsample/http/middleware"
	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/router"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/logger"
	"github.com/xy-planning-network/acrsample/postgres"
	"github.com/xy-planning-network/acrsample/urls"
)

const shutdownTimeout = 5 * time.Second

// A Ranger manages and exposes all components of the app to one another.
type Ranger struct {
	*resp.Responder
	*router.Router

	ctx      context.Context
	db       *postgres.DB
	env      acrsample.Environment
	l        logger.Logger
	sessions session.SessionStorer
	site     *admin.Site
	siteOpts []admin.SiteOpt
	srv      *http.Server
	throttle admin.Throttle
	url      *url.URL
	users    admin.UserStore
}

// New constructs a Ranger from the provided options.
// Options passed into New are applied first;
// whatever they leave unset is then configured from environment variables.
//
// Once every component exists, the route table in package urls is registered
// and the followups options returned are called.
func New(opts ...RangerOption) (*Ranger, error) {
	r := &Ranger{ctx: context.Background()}
	followups := make([]OptFollowup, 0)

	for _, opt := range opts {
		fn, err := opt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", acrsample.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	if err := r.setup(); err != nil {
		return nil, fmt.Errorf("%w: %s", acrsample.ErrBadConfig, err)
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", acrsample.ErrBadConfig, err)
		}
	}

	return r, nil
}

// setup fills in every component an option did not.
func (r *Ranger) setup() error {
	if r.env == "" {
		r.env = acrsample.EnvVarOrEnv(environmentEnvVar, acrsample.Development)
	}

	if r.l == nil {
		r.l = defaultAppLogger(r.env)
	}
	r.l.Debug(fmt.Sprintf("using env %s", r.env), nil)

	r.url = acrsample.EnvVarOrURL(BaseURLEnvVar, DefaultBaseURL)
	if r.url == nil {
		return fmt.Errorf("%w: %s", acrsample.ErrNotValid, BaseURLEnvVar)
	}

	title := acrsample.EnvVarOrString(AppTitleEnvVar, defaultAppTitle)
	redisOpts, err := NewRedisOptions()
	if err != nil {
		return err
	}

	if r.users == nil {
		if r.db == nil {
			r.l.Debug("connecting to database", nil)
			if r.db, err = defaultDB(r.env, postgres.Migrations); err != nil {
				return err
			}
		}

		r.users = postgres.NewUserStore(r.db)
	}
	r.l.Debug(fmt.Sprintf("using user store %T", r.users), nil)

	if r.sessions == nil {
		if r.sessions, err = defaultSessionStore(r.env, title, redisOpts); err != nil {
			return err
		}
	}
	r.l.Debug(fmt.Sprintf("using session store %T", r.sessions), nil)

	if r.throttle == nil {
		r.throttle = defaultThrottle(redisOpts)
	}
	r.l.Debug(fmt.Sprintf("using login throttle %T", r.throttle), nil)

	proxies, err := middleware.ParseTrustedProxies(os.Getenv(TrustedProxiesEnvVar))
	if err != nil {
		return err
	}

	contact := acrsample.EnvVarOrString(ContactUsEnvVar, defaultContactUs)
	r.Responder = defaultResponder(r.l, r.url, defaultParser(r.env, r.url, title), contact)
	r.Router = defaultRouter(
		r.env,
		r.l,
		r.Responder,
		defaultMiddlewares(r.env, r.l, r.url, r.Responder, proxies, r.sessions, r.users),
	)

	siteOpts := append([]admin.SiteOpt{
		admin.WithHeader(title + " administration"),
		admin.WithLogger(r.l),
		admin.WithMaxFailures(acrsample.EnvVarOrInt(loginFailuresEnvVar, admin.DefaultMaxFailures)),
		admin.WithThrottle(r.throttle),
	}, r.siteOpts...)

	if r.site, err = admin.NewSite(r.Responder, r.users, siteOpts...); err != nil {
		return err
	}

	if err := urls.Register(r.Router, urls.Patterns(r.Responder, r.site)); err != nil {
		return err
	}

	if r.srv == nil {
		r.srv = defaultServer(r.ctx)
	}
	r.srv.Handler = r.Router

	return nil
}

func (r *Ranger) EmitDB() *postgres.DB                    { return r.db }
func (r *Ranger) EmitEnv() acrsample.Environment          { return r.env }
func (r *Ranger) EmitLogger() logger.Logger               { return r.l }
func (r *Ranger) EmitSessionStore() session.SessionStorer { return r.sessions }
func (r *Ranger) EmitSite() *admin.Site                   { return r.site }
func (r *Ranger) EmitUserStore() admin.UserStore          { return r.users }

// Guide begins the web server.
//
// These, and cancelling the context.Context set with WithContext, stop Guide:
//
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
//
// If the web server cannot listen, Guide returns that error after shutting down.
func (r *Ranger) Guide() error {
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer signal.Stop(ch)

	go func() {
		select {
		case s := <-ch:
			r.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		r.l.Info(fmt.Sprintf("running web server at %s", r.srv.Addr), nil)
		if err := r.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("could not listen: %w", err)
			r.l.Error(err.Error(), nil)
			errCh <- err
			cancel()
		}
	}()

	<-ctx.Done()
	if err := r.Shutdown(); err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// Shutdown shutdowns the web server,
// then releases connections to Redis and the database, if any.
func (r *Ranger) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	r.l.Info("shutting down web server", nil)
	err := r.srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	var errs []error
	if c, ok := r.throttle.(io.Closer); ok {
		errs = append(errs, c.Close())
	}

	if r.db != nil {
		errs = append(errs, postgres.Close(r.db))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("could not release connections: %w", err)
	}

	r.l.Info("web server shutdown successfully", nil)
	return nil
}
