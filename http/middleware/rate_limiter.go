package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRate  rate.Limit = 1
	defaultBurst            = 10
	visitorTTL              = 60 * time.Minute
)

// A Visitor tracks a rate limiter and last seen time.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// A Visitors maps a Visitor to an IP address.
type Visitors struct {
	burst    int
	every    rate.Limit
	lastScan time.Time
	val      map[string]Visitor
	sync.Mutex
}

// NewVisitors constructs a *Visitors limiting each to 1 request every second with bursts of up to 10.
func NewVisitors() *Visitors { return NewVisitorsLimit(defaultRate, defaultBurst) }

// NewVisitorsLimit constructs a *Visitors limiting each to r requests every second with bursts of up to b.
func NewVisitorsLimit(r rate.Limit, b int) *Visitors {
	return &Visitors{burst: b, every: r, lastScan: time.Now(), val: make(map[string]Visitor)}
}

// Fetch retrieves the Visitor for the given ip creating a new Visitor if not seen.
func (vs *Visitors) Fetch(ip string) Visitor {
	vs.Lock()
	defer vs.Unlock()

	v, ok := vs.val[ip]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.every, vs.burst)}
	}

	v.LastSeen = time.Now().UTC()
	vs.val[ip] = v
	return v
}

// Len reports how many Visitors are tracked.
func (vs *Visitors) Len() int {
	vs.Lock()
	defer vs.Unlock()

	return len(vs.val)
}

// cleanup deletes a Visitor from Visitors if they have not been seen in over an hour.
// A scan runs at most once per minute.
func (vs *Visitors) cleanup() {
	vs.Lock()
	defer vs.Unlock()

	if time.Since(vs.lastScan) < time.Minute {
		return
	}

	vs.lastScan = time.Now()
	for ip, v := range vs.val {
		if time.Since(v.LastSeen) > visitorTTL {
			delete(vs.val, ip)
		}
	}
}

// RateLimit encloses the Visitors map and serves the http.Handler,
// writing 429 when the requesting IP exceeds its limit.
//
// NOTE: implementation found here:
// https://www.alexedwards.net/blog/how-to-rate-limit-http-requests
func RateLimit(visitors *Visitors) Adapter {
	if visitors == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !visitors.Fetch(RequestIP(r)).Limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			visitors.cleanup()
			h.ServeHTTP(w, r)
		})
	}
}
