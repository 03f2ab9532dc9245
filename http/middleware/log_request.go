package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/logger"
)

// statusRecorder remembers the status code written to the response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}

	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}

	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

// LogRequest logs the request's method, requested URL, originating IP address,
// response status and duration using the enclosed implementation of logger.Logger.
//
// LogRequest scrubs the values for the following query keys:
//   - password
//
// If logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(ls logger.Logger) Adapter {
	if ls == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w}
			h.ServeHTTP(sr, r)

			uri := r.URL.Path
			q := r.URL.Query()
			if q.Has("password") {
				q.Set("password", logger.MaskVal)
			}

			if query := q.Encode(); query != "" {
				uri += "?" + query
			}

			data := map[string]any{
				"duration": time.Since(start).String(),
				"ip":       RequestIP(r),
				"size":     sr.size,
				"status":   sr.status,
			}

			if id, ok := r.Context().Value(acrsample.RequestIDKey).(string); ok {
				data["requestId"] = id
			}

			ls.Info(fmt.Sprintf("%s %s", r.Method, uri), &logger.LogContext{Caller: "http/request", Data: data})
		})
	}
}
