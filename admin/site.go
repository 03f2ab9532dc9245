package admin

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/middleware"
	"github.com/xy-planning-network/acrsample/http/req"
	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/router"
	"github.com/xy-planning-network/acrsample/logger"
)

const (
	// Namespace qualifies the names of the Site's routes, e.g., "admin:index".
	Namespace = "admin"

	// StaticPath serves the Site's stylesheet.
	StaticPath = "/static/admin/"

	defaultHeader  = "ACR Sample administration"
	defaultPerPage = 100

	tmplBase       = "tmpl/base.tmpl"
	tmplChangelist = "tmpl/changelist.tmpl"
	tmplErr        = "tmpl/error.tmpl"
	tmplIndex      = "tmpl/index.tmpl"
	tmplLoggedOut  = "tmpl/logged_out.tmpl"
	tmplLogin      = "tmpl/login.tmpl"
	tmplNotFound   = "tmpl/not_found.tmpl"
)

var (
	//go:embed tmpl
	tmpls embed.FS

	//go:embed static
	static embed.FS
)

// Templates exposes the Site's HTML templates, rooted so names look like "tmpl/base.tmpl".
func Templates() fs.FS { return tmpls }

// Static exposes the Site's assets, rooted at their file names.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}

	return sub
}

// BaseTemplate is the layout every Site page renders within.
func BaseTemplate() string { return tmplBase }

// ErrTemplate renders when a page fails to render.
func ErrTemplate() string { return tmplErr }

// A Site is the administration site.
type Site struct {
	header      string
	limiter     *middleware.Visitors
	logger      logger.Logger
	maxFailures int
	models      []ModelAdmin
	now         func() time.Time
	parser      *req.Parser
	perPage     int64
	responder   *resp.Responder
	throttle    Throttle
	users       UserStore

	dummyOnce sync.Once
	dummy     acrsample.User
}

// NewSite constructs a *Site rendering through d and authenticating against users.
//
// Users are registered as the first ModelAdmin.
func NewSite(d *resp.Responder, users UserStore, opts ...SiteOpt) (*Site, error) {
	if d == nil || users == nil {
		return nil, fmt.Errorf("%w: a responder and user store are required", acrsample.ErrBadConfig)
	}

	s := &Site{
		header:      defaultHeader,
		logger:      logger.New(),
		maxFailures: DefaultMaxFailures,
		now:         time.Now,
		parser:      req.NewParser(),
		perPage:     defaultPerPage,
		responder:   d,
		users:       users,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.throttle == nil {
		s.throttle = NewMemoryThrottle(DefaultThrottleWindow)
	}

	if s.limiter == nil {
		s.limiter = middleware.NewVisitors()
	}

	if err := s.Register(UserAdmin(users)); err != nil {
		return nil, err
	}

	return s, nil
}

// Register adds m to the Site. Names must be unique.
func (s *Site) Register(m ModelAdmin) error {
	if err := m.valid(); err != nil {
		return err
	}

	if _, ok := s.model(m.Name); ok {
		return fmt.Errorf("%w: %s already registered", acrsample.ErrExists, m.Name)
	}

	s.models = append(s.models, m)
	return nil
}

// Models lists the registered ModelAdmins in registration order.
func (s *Site) Models() []ModelAdmin {
	return append(make([]ModelAdmin, 0, len(s.models)), s.models...)
}

// Mount registers the Site's routes under prefix, e.g., "/admin".
// Route names are qualified by Namespace.
func (s *Site) Mount(r *router.Router, prefix string) error {
	sub := r.Mount(prefix, Namespace)
	staff := middleware.NewAuthorizeApplicator[acrsample.User](s.responder, acrsample.AdminLoginPath).
		Apply(acrsample.User.CanAccessAdmin)

	err := sub.HandleRoutes([]router.Route{
		{Path: "/", Method: "GET", Name: "index", Handler: s.index, Middlewares: []middleware.Adapter{staff}},
		{Path: "/login/", Method: "GET", Name: "login", Handler: s.loginForm},
		{Path: "/login/", Method: "POST", Handler: s.login, Middlewares: []middleware.Adapter{middleware.RateLimit(s.limiter)}},
		{Path: "/logout/", Method: "POST", Name: "logout", Handler: s.logout},
		{Path: "/{model}/", Method: "GET", Name: "changelist", Handler: s.changelist, Middlewares: []middleware.Adapter{staff}},
	})
	if err != nil {
		return err
	}

	sub.CatchAll(s.notFound, staff)
	return nil
}

// model finds the registered ModelAdmin called name.
func (s *Site) model(name string) (ModelAdmin, bool) {
	for _, m := range s.models {
		if m.Name == name {
			return m, true
		}
	}

	return ModelAdmin{}, false
}

// dummyUser is checked against when a username matches no one,
// so failing lookups cost the same as failing passwords.
func (s *Site) dummyUser() acrsample.User {
	s.dummyOnce.Do(func() {
		_ = s.dummy.SetPassword("acrsample-dummy-password")
	})

	return s.dummy
}
