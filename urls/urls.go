// Package urls is the app's route table.
package urls

import (
	"fmt"
	"net/http"

	"github.com/xy-planning-network/acrsample/http/resp"
	"github.com/xy-planning-network/acrsample/http/router"
)

// Greeting is the body served at the root path.
const Greeting = "Hello from ACR Sample Django App!"

// An Includer mounts a whole sub-tree of routes under a prefix.
type Includer interface {
	Mount(r *router.Router, prefix string) error
}

// A Pattern is one entry in the route table.
//
// A Pattern either handles Path itself or hands every path under it to Include.
type Pattern struct {
	Path    string
	Method  string
	Name    string
	Handler http.HandlerFunc
	Include Includer
}

// Patterns lists the app's routes, in the order they are matched.
func Patterns(d *resp.Responder, site Includer) []Pattern {
	return []Pattern{
		{Path: "/admin", Include: site},
		{Path: "/", Name: "home", Handler: Hello(d)},
	}
}

// Register adds patterns to r in order.
// A Pattern that cannot be registered stops registration with its error.
func Register(r *router.Router, patterns []Pattern) error {
	for _, p := range patterns {
		switch {
		case p.Include != nil:
			if err := p.Include.Mount(r, p.Path); err != nil {
				return fmt.Errorf("mounting %s: %w", p.Path, err)
			}

		case p.Handler != nil:
			if err := r.Handle(router.Route{Path: p.Path, Method: p.Method, Name: p.Name, Handler: p.Handler}); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: %s has neither handler nor include", router.ErrBadRoute, p.Path)
		}
	}

	return nil
}

// Hello responds with Greeting served as HTML.
func Hello(d *resp.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Text(w, r, resp.ContentType("text/html; charset=utf-8"), resp.Data(Greeting)); err != nil {
			d.Err(w, r, err)
		}
	}
}
