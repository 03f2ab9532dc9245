package admin

import (
	"time"

	"github.com/xy-planning-network/acrsample/http/middleware"
	"github.com/xy-planning-network/acrsample/logger"
)

// A SiteOpt configures a *Site when constructing it.
type SiteOpt func(*Site)

// WithClock sets the function reporting the current time.
func WithClock(now func() time.Time) SiteOpt {
	return func(s *Site) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHeader sets the name heading every page.
func WithHeader(header string) SiteOpt {
	return func(s *Site) {
		if header != "" {
			s.header = header
		}
	}
}

// WithLoginLimiter sets the per IP rate limit applied to login attempts.
func WithLoginLimiter(v *middleware.Visitors) SiteOpt {
	return func(s *Site) { s.limiter = v }
}

// WithLogger sets the logger.Logger the Site reports through.
func WithLogger(l logger.Logger) SiteOpt {
	return func(s *Site) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxFailures sets how many failed logins a username and IP pair may accrue
// before being refused.
func WithMaxFailures(n int) SiteOpt {
	return func(s *Site) {
		if n > 0 {
			s.maxFailures = n
		}
	}
}

// WithPerPage sets how many records a change list page shows.
func WithPerPage(n int64) SiteOpt {
	return func(s *Site) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithThrottle sets the Throttle counting failed logins.
func WithThrottle(t Throttle) SiteOpt {
	return func(s *Site) {
		if t != nil {
			s.throttle = t
		}
	}
}
