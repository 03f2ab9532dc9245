package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/xy-planning-network/acrsample"
)

// ReportPanic encloses the env and returns a function that when called,
// wraps the passed in http.HandlerFunc in sentryhttp.HandleFunc
// in order to recover and report panics.
//
// In DEVELOPMENT panics are left alone.
func ReportPanic(env acrsample.Environment) func(http.HandlerFunc) http.HandlerFunc {
	if env.IsDevelopment() {
		return func(handler http.HandlerFunc) http.HandlerFunc { return handler }
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         false,
		WaitForDelivery: !env.IsTesting(),
	})

	return func(handler http.HandlerFunc) http.HandlerFunc {
		return sh.HandleFunc(handler)
	}
}
