package middleware

import (
	"net/http"
	"strings"
)

// An Adapter allows chaining middlewares together.
type Adapter func(http.Handler) http.Handler

// Chain glues the set of adapters to the handler.
func Chain(handler http.Handler, adapters ...Adapter) http.Handler {
	// NOTE: loop in reverse to preserve middleware order
	for i := len(adapters) - 1; i >= 0; i-- {
		handler = adapters[i](handler)
	}

	return handler
}

// NoopAdapter passes the request along untouched.
func NoopAdapter(h http.Handler) http.Handler { return h }

// acceptsJSON asserts whether the request asks for a JSON response.
func acceptsJSON(header http.Header) bool {
	for _, v := range header.Values("Accept") {
		if strings.Contains(v, "application/json") {
			return true
		}
	}

	return false
}
