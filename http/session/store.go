package session

import (
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/boj/redistore"
	gorilla "github.com/gorilla/sessions"
	"github.com/xy-planning-network/acrsample"
)

const defaultMaxAge = 86400 // 1 day

// The SessionStorer defines methods for interacting with a Session for the given *http.Request.
type SessionStorer interface {
	GetSession(r *http.Request) (Session, error)
}

// A Service wraps a gorilla.Store to manage constructing a new one
// and accessing the sessions contained in it.
//
// Service implements SessionStorer.
type Service struct {
	// The authentication key.
	ak []byte

	// The encryption key.
	ek []byte

	// The name this Service's sessions are stored under.
	// Also used as the name of the cookie.
	sn string

	// The environment the Service is operating within.
	env acrsample.Environment

	// The number of seconds a session is valid.
	maxAge int

	// how the Service actually implements storing sessions.
	store gorilla.Store
}

// A Config provides the required values for constructing a Service.
type Config struct {
	Env acrsample.Environment

	// The name sessions are stored under.
	SessionName string

	// Hex-encoded key
	AuthKey string

	// Hex-encoded key
	EncryptKey string
}

func (c Config) valid() error {
	if err := c.Env.Valid(); err != nil {
		return fmt.Errorf("%w: %q", err, c.Env)
	}

	if c.SessionName == "" {
		return fmt.Errorf("%w: SessionName cannot be %q", acrsample.ErrBadConfig, c.SessionName)
	}

	return nil
}

// NewStoreService initiates a data store for user web sessions
// with the provided config.
// If no backing storage is provided through a functional option -
// like WithRedis - NewStoreService stores sessions in cookies.
func NewStoreService(cfg Config, opts ...ServiceOpt) (Service, error) {
	if err := cfg.valid(); err != nil {
		return Service{}, fmt.Errorf("%w: %s", acrsample.ErrBadConfig, err)
	}

	gob.Register(Flash{})

	s := Service{
		env:    cfg.Env,
		maxAge: defaultMaxAge,
		sn:     cfg.SessionName,
	}

	var err error
	s.ak, err = hex.DecodeString(cfg.AuthKey)
	if err != nil || len(s.ak) == 0 {
		return Service{}, fmt.Errorf("%w: authentication key is not valid: %v", acrsample.ErrBadConfig, err)
	}

	s.ek, err = hex.DecodeString(cfg.EncryptKey)
	if err != nil {
		return Service{}, fmt.Errorf("%w: encryption key is not valid: %s", acrsample.ErrBadConfig, err)
	}

	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return Service{}, fmt.Errorf("%w: %s", acrsample.ErrBadConfig, err)
		}
	}

	if s.store == nil {
		if err := WithCookie()(&s); err != nil {
			return Service{}, fmt.Errorf("%w: %s", acrsample.ErrBadConfig, err)
		}
	}

	return s, nil
}

// GetSession retrieves the Session for the *http.Request,
// or creates a brand new one.
//
// A cookie that fails to decode, for example after rotating keys,
// yields a new Session alongside the error.
func (s Service) GetSession(r *http.Request) (Session, error) {
	session, err := s.store.Get(r, s.sn)
	return Session{s: session}, err
}

// A ServiceOpt configures the provided *Service,
// returning an error if unable to.
type ServiceOpt func(*Service) error

// WithCookie configures the Service to back session storage with cookies.
func WithCookie() ServiceOpt {
	return func(s *Service) error {
		var c *gorilla.CookieStore
		if len(s.ek) > 0 && !s.env.IsTesting() {
			c = gorilla.NewCookieStore(s.ak, s.ek)
		} else {
			c = gorilla.NewCookieStore(s.ak)
		}

		c.Options.Path = "/"
		c.Options.Secure = !(s.env.IsDevelopment() || s.env.IsTesting())
		c.Options.HttpOnly = true
		c.Options.SameSite = http.SameSiteLaxMode
		c.MaxAge(s.maxAge)
		s.store = c
		return nil
	}
}

// WithMaxAge sets the time-to-live of a session.
//
// Call before other options so this value is available.
//
// Otherwise, the Service uses defaultMaxAge.
func WithMaxAge(secs int) ServiceOpt {
	return func(s *Service) error {
		if secs <= 0 {
			return fmt.Errorf("%w: max age must be positive, got %d", acrsample.ErrNotValid, secs)
		}

		s.maxAge = secs
		return nil
	}
}

// WithRedis configures the Service to back session storage with Redis.
//
// To authenticate to the Redis server, provide pass, otherwise its zero-value is acceptable.
func WithRedis(uri, pass string) ServiceOpt {
	return func(s *Service) error {
		keyPairs := [][]byte{s.ak}
		if len(s.ek) > 0 {
			keyPairs = append(keyPairs, s.ek)
		}

		r, err := redistore.NewRediStore(10, "tcp", uri, pass, keyPairs...)
		if err != nil {
			return fmt.Errorf("%w: failed initializing Redis: %s", acrsample.ErrBadConfig, err)
		}

		r.Options.Path = "/"
		r.Options.Secure = !(s.env.IsDevelopment() || s.env.IsTesting())
		r.Options.HttpOnly = true
		r.SetMaxAge(s.maxAge)
		s.store = r
		return nil
	}
}
