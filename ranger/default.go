package ranger

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/admin"
	"github.com/xy-planning-network/acrsample/http/middleware"
	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/router"
	"github.com/xy-planning-network/acrsample/http/session"
	"github.com/xy-planning-network/acrsample/http/template"
	"github.com/xy-planning-network/acrsample/logger"
	"github.com/xy-planning-network/acrsample/postgres"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultDB connects to a Postgres database
// using default configuration environment variables
// and runs the list of [postgres.Migration] passed in.
func defaultDB(env acrsample.Environment, list []postgres.Migration) (*postgres.DB, error) {
	return postgres.Connect(NewPostgresConfig(env), list, env)
}

// defaultAppLogger constructs a [logger.Logger] configured for use in the application.
//
// When SENTRY_DSN is set, errors are reported to Sentry as well.
func defaultAppLogger(env acrsample.Environment) logger.Logger {
	al := logger.New(
		logger.WithEnv(env.String()),
		logger.WithLevel(envVarOrLogLevel(logLevelEnvVar, logger.LogLevelInfo)),
	)

	dsn := os.Getenv(sentryDsnEnvVar)
	if dsn == "" {
		return al
	}

	l := logger.NewSentryLogger(al, dsn)
	l.Debug("using SentryLogger for app logger", nil)

	return l
}

// defaultParser constructs a *template.Parse to be used
// when responding to HTTP requests with [*resp.Responder.Html].
//
// Templates in the working directory shadow the admin site's.
//
// defaultParser makes available these functions in an HTML template:
//
//   - "env"
//   - "title" returns the value set by the APP_TITLE env var
//   - "rootUrl"
func defaultParser(env acrsample.Environment, u *url.URL, title string) *template.Parse {
	p := template.NewParser([]fs.FS{os.DirFS("."), admin.Templates()})
	p.AddFn(template.Env(env))
	p.AddFn(template.Title(title))
	p.AddFn(template.RootUrl(u))

	return p
}

// defaultResponder configures the [*resp.Responder] to be used by http.Handlers.
func defaultResponder(l logger.Logger, u *url.URL, p template.Parser, contact string) *resp.Responder {
	return resp.NewResponder(
		resp.WithBaseTemplate(admin.BaseTemplate()),
		resp.WithContactErrMsg(fmt.Sprintf(session.ContactUsErr, contact)),
		resp.WithErrTemplate(admin.ErrTemplate()),
		resp.WithLogger(l),
		resp.WithParser(p),
		resp.WithRootUrl(u.String()),
	)
}

// defaultRouter constructs a [*router.Router] to be used by the web server.
//
// HTML clients asking for an unknown path are sent to the root;
// everyone else gets a 404.
func defaultRouter(
	env acrsample.Environment,
	l logger.Logger,
	responder *resp.Responder,
	mws []middleware.Adapter,
) *router.Router {
	route := router.New(env, middleware.LogRequest(l))
	route.OnEveryRequest(mws...)
	route.HandleNotFound(func(wx http.ResponseWriter, rx *http.Request) {
		if strings.Contains(rx.Header.Get("Accept"), "text/html") && rx.URL.Path != "/" {
			if err := responder.Redirect(wx, rx, resp.ToRoot()); err != nil {
				responder.Err(wx, rx, err)
			}
			return
		}

		wx.WriteHeader(http.StatusNotFound)
	})
	route.Assets(admin.StaticPath, admin.Static())

	return route
}

// defaultMiddlewares lists the [middleware.Adapter] run on every request, outermost first.
func defaultMiddlewares(
	env acrsample.Environment,
	l logger.Logger,
	u *url.URL,
	d *resp.Responder,
	proxies middleware.TrustedProxies,
	sessions session.SessionStorer,
	users admin.UserStore,
) []middleware.Adapter {
	return []middleware.Adapter{
		middleware.ForceHTTPS(env),
		middleware.RequestID(),
		middleware.InjectIPAddress(proxies),
		middleware.LogRequest(l),
		middleware.CORS(strings.TrimSuffix(u.String(), "/")),
		middleware.InjectSession(sessions),
		middleware.CurrentUser(d, l, admin.UserStorer(users)),
	}
}

var (
	sessionNameStrip = regexp.MustCompile(`[,':]`)
	sessionNameSpace = regexp.MustCompile(`\s+`)
)

// sessionName derives the cookie name sessions are stored under from the app's title.
func sessionName(appName string) string {
	appName = cases.Lower(language.English).String(strings.TrimSpace(appName))
	appName = sessionNameStrip.ReplaceAllString(appName, "")
	appName = sessionNameSpace.ReplaceAllString(appName, "-")

	return "acrsample-" + appName
}

// defaultSessionStore constructs a SessionStorer to be used for storing session data.
//
// defaultSessionStore relies on three env vars:
//   - APP_TITLE
//   - SESSION_AUTH_KEY
//   - SESSION_ENCRYPTION_KEY
//
// Both KEY env vars be valid hex encoded values; cf. [encoding/hex].
//
// When redisOpts is not nil, sessions are stored in Redis; otherwise, in cookies.
func defaultSessionStore(env acrsample.Environment, appName string, redisOpts *redis.Options) (session.SessionStorer, error) {
	cfg := session.Config{
		AuthKey:     os.Getenv(SessionAuthKeyEnvVar),
		EncryptKey:  os.Getenv(SessionEncryptKeyEnvVar),
		Env:         env,
		SessionName: sessionName(appName),
	}

	args := []session.ServiceOpt{session.WithMaxAge(sessionMaxAge)}
	if redisOpts != nil {
		args = append(args, session.WithRedis(redisOpts.Addr, redisOpts.Password))
	} else {
		args = append(args, session.WithCookie())
	}

	return session.NewStoreService(cfg, args...)
}

// defaultThrottle constructs the admin.Throttle counting failed logins.
// Failures are counted in Redis when redisOpts is not nil.
func defaultThrottle(redisOpts *redis.Options) admin.Throttle {
	window := acrsample.EnvVarOrDuration(loginWindowEnvVar, admin.DefaultThrottleWindow)
	if redisOpts != nil {
		return admin.NewRedisThrottle(redisOpts, window)
	}

	return admin.NewMemoryThrottle(window)
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context) *http.Server {
	port := acrsample.EnvVarOrString(portEnvVar, DefaultPort)
	if port[0] != ':' {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		IdleTimeout:  acrsample.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  acrsample.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: acrsample.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}
