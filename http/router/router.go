package router

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/middleware"
)

// A Route maps a path and HTTP method to an [http.HandlerFunc].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
//
// A Route without a Method matches any method.
// A Route with a Name can be reversed into its path.
type Route struct {
	Path        string
	Method      string
	Name        string
	Handler     http.HandlerFunc
	Middlewares []middleware.Adapter
}

// Router routes requests for resources to their handlers.
type Router struct {
	Env           acrsample.Environment
	everyReqStack []middleware.Adapter
	logReq        middleware.Adapter
	namespace     string
	r             *mux.Router
}

// New constructs a [*Router] for the given environment.
func New(env acrsample.Environment, logReq middleware.Adapter) *Router {
	if logReq == nil {
		logReq = middleware.NoopAdapter
	}

	return &Router{Env: env, logReq: logReq, r: mux.NewRouter()}
}

// Assets serves the files in fsys under the path prefix, caching them for 30 days.
func (r *Router) Assets(prefix string, fsys fs.FS) {
	r.r.PathPrefix(prefix).Handler(middleware.Chain(
		http.StripPrefix(prefix, http.FileServer(http.FS(fsys))),
		cacheControlMiddleware(),
		r.logReq,
	))
}

// CatchAll sets up a handler for all routes under the Router to funnel to.
func (r *Router) CatchAll(handler http.HandlerFunc, middlewares ...middleware.Adapter) {
	mws := append(r.stack(), middlewares...)
	r.r.PathPrefix("/").Handler(middleware.Chain(middleware.ReportPanic(r.Env)(handler), mws...))
}

// Handle applies the [Route] to the [*Router].
func (r *Router) Handle(route Route) error {
	return r.HandleRoutes([]Route{route})
}

// HandleNotFound sets the provided [http.HandlerFunc] as the default function
// for when no other registered Route is matched.
func (r *Router) HandleNotFound(handler http.HandlerFunc) {
	r.r.NotFoundHandler = middleware.Chain(middleware.ReportPanic(r.Env)(handler), r.stack()...)
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
//
// A malformed path or a duplicate name returns ErrBadRoute.
func (r *Router) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) error {
	for _, route := range routes {
		mws := append(r.stack(), middlewares...)
		mws = append(mws, route.Middlewares...)
		handler := middleware.Chain(middleware.ReportPanic(r.Env)(route.Handler), mws...)

		mr := r.r.Handle(route.Path, handler)
		if route.Method != "" {
			mr = mr.Methods(route.Method)
		}

		if route.Name != "" {
			name := r.qualify(route.Name)
			if r.r.Get(name) != nil {
				return fmt.Errorf("%w: name %q registered twice", ErrBadRoute, name)
			}

			mr = mr.Name(name)
		}

		if err := mr.GetError(); err != nil {
			return fmt.Errorf("%w: %s %s: %s", ErrBadRoute, route.Method, route.Path, err)
		}
	}

	return nil
}

// Mount constructs a [*Router] handling requests to endpoints matching the prefix
// whose route names are qualified by namespace.
//
// e.g., r.Mount("/admin", "admin") names its "index" route "admin:index".
//
// Requests for a mounted route's path without its trailing slash,
// e.g., "/admin", are permanently redirected to the path with one.
func (r *Router) Mount(prefix, namespace string) *Router {
	sub := r.Subrouter(prefix)
	sub.namespace = r.qualify(namespace)
	sub.r.StrictSlash(true)
	return sub
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*Router] will apply to every request.
func (r *Router) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// Reverse builds the path of the route registered under name,
// filling in path variables from key/value pairs.
//
// Names are fully qualified, e.g. "admin:index".
func (r *Router) Reverse(name string, pairs ...string) (string, error) {
	route := r.r.Get(name)
	if route == nil {
		return "", fmt.Errorf("%w: no route named %q", ErrNoRoute, name)
	}

	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrNoRoute, name, err)
	}

	return u.Path, nil
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}

// Subrouter constructs a [*Router] that handles requests to endpoints matching the prefix.
//
// e.g., r.Subrouter("/admin") handles requests to endpoints like /admin/users/
func (r *Router) Subrouter(prefix string) *Router {
	return &Router{
		Env:           r.Env,
		everyReqStack: r.stack(),
		logReq:        r.logReq,
		namespace:     r.namespace,
		r:             r.r.PathPrefix(prefix).Subrouter(),
	}
}

// UnauthedRoutes registers the set of Routes as those requiring unauthenticated users.
// It applies the given middlewares before performing that check.
func (r *Router) UnauthedRoutes(routes []Route, middlewares ...middleware.Adapter) error {
	mws := append(middlewares[:len(middlewares):len(middlewares)], middleware.RequireUnauthed())
	return r.HandleRoutes(routes, mws...)
}

// qualify prefixes name with the Router's namespace.
func (r *Router) qualify(name string) string {
	if r.namespace == "" {
		return name
	}

	return r.namespace + ":" + name
}

// stack copies everyReqStack so appending to it never clobbers a sibling Router's.
func (r *Router) stack() []middleware.Adapter {
	return append(make([]middleware.Adapter, 0, len(r.everyReqStack)), r.everyReqStack...)
}

// cacheControlMiddleware helps by adding a "Cache-Control" header to the response.
func cacheControlMiddleware() middleware.Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "max-age=2592000") // 30 days
			handler.ServeHTTP(w, r)
		})
	}
}
