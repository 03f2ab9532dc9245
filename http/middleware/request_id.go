package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/xy-planning-network/acrsample"
)

// RequestIDHeader echoes the request ID back to the client.
const RequestIDHeader = "X-Request-Id"

// RequestID adds a uuid to the request context under acrsample.RequestIDKey
// and sets it on the response's X-Request-Id header.
func RequestID() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), acrsample.RequestIDKey, id)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
