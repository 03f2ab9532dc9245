package session

import (
	"net/http"

	gorilla "github.com/gorilla/sessions"
)

// keys used internal to a Session.
const userSessionKey = "acrsample-session-user"

// The Sessionable wraps methods for basic adding values to, deleting, and getting values from a session
// associated with an *http.Request and saving those to the session store.
type Sessionable interface {
	Delete(w http.ResponseWriter, r *http.Request) error
	Get(key string) any
	Save(w http.ResponseWriter, r *http.Request) error
	Set(w http.ResponseWriter, r *http.Request, key string, val any) error
}

// The UserSessionable wraps methods for adding, removing, and retrieving
// user IDs from a session.
type UserSessionable interface {
	DeregisterUser(w http.ResponseWriter, r *http.Request) error
	RegisterUser(w http.ResponseWriter, r *http.Request, ID uint) error
	RenewUser(w http.ResponseWriter, r *http.Request, ID uint, drop ...string) error
	UserID() (uint, error)
}

// The FullSessionable composes session's major interfaces.
type FullSessionable interface {
	FlashSessionable
	Sessionable
	UserSessionable
}

var _ FullSessionable = Session{}

// A Session provides all functionality for managing a fully featured session.
//
// Its functionality is implemented by lightly wrapping a gorilla.Session.
type Session struct {
	s *gorilla.Session
}

// NewSession wraps g in a Session.
func NewSession(g *gorilla.Session) Session { return Session{s: g} }

// Delete removes a session by making the MaxAge negative.
func (s Session) Delete(w http.ResponseWriter, r *http.Request) error {
	s.s.Options.MaxAge = -1
	return s.Save(w, r)
}

// DeregisterUser removes the User from the session.
func (s Session) DeregisterUser(w http.ResponseWriter, r *http.Request) error {
	delete(s.s.Values, userSessionKey)
	return s.Save(w, r)
}

// Flashes retrieves []Flash stored in the session.
func (s Session) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	if s.s == nil {
		return nil
	}

	raw := s.s.Flashes()
	fs := make([]Flash, 0, len(raw))
	for _, r := range raw {
		f, ok := r.(Flash)
		if !ok {
			continue
		}

		fs = append(fs, f)
	}

	if len(raw) > 0 {
		// NOTE: flashes are removed after they are accessed,
		// but the session needs to be saved for them to be finally removed
		if err := s.Save(w, r); err != nil {
			return nil
		}
	}

	return fs
}

// Get retrieves a value from the session according to the key passed in.
func (s Session) Get(key string) any { return s.s.Values[key] }

// RegisterUser stores the user's ID in the session.
func (s Session) RegisterUser(w http.ResponseWriter, r *http.Request, ID uint) error {
	s.s.Values[userSessionKey] = ID
	return s.Save(w, r)
}

// RenewUser stores the user's ID in the session, drops the values under the drop keys,
// and saves the session under a new ID, removing the old one from the store.
//
// Stores keeping no server side ID, such as cookies, simply save.
func (s Session) RenewUser(w http.ResponseWriter, r *http.Request, ID uint, drop ...string) error {
	for _, key := range drop {
		delete(s.s.Values, key)
	}

	s.s.Values[userSessionKey] = ID
	if s.s.ID == "" {
		return s.Save(w, r)
	}

	values, maxAge := s.s.Values, s.s.Options.MaxAge
	s.s.Values = make(map[any]any)
	s.s.Options.MaxAge = -1
	err := s.Save(w, r)

	s.s.Values, s.s.Options.MaxAge = values, maxAge
	if err != nil {
		return err
	}

	s.s.ID = ""
	return s.Save(w, r)
}

// Save wraps gorilla.Session.Save, saving the session in the request.
func (s Session) Save(w http.ResponseWriter, r *http.Request) error { return s.s.Save(r, w) }

// Set stores a value according to the key passed in on the session.
func (s Session) Set(w http.ResponseWriter, r *http.Request, key string, val any) error {
	s.s.Values[key] = val
	return s.Save(w, r)
}

// SetFlash stores the passed in Flash in the session.
func (s Session) SetFlash(w http.ResponseWriter, r *http.Request, flash Flash) error {
	s.s.AddFlash(flash)
	return s.Save(w, r)
}

// UserID gets the user ID out of the session.
// A user ID should be present in a session if the user is successfully authenticated.
// If no user ID can be found, ErrNoUser returns.
// This ought to only happen when a user is going through an authentication workflow or hitting unauthenticated pages.
//
// If the value returned from the session is not a uint, ErrNotValid returns and represents a programming error.
func (s Session) UserID() (uint, error) {
	intfVal, ok := s.s.Values[userSessionKey]
	if !ok {
		return 0, ErrNoUser
	}

	val, ok := intfVal.(uint)
	if !ok {
		return 0, ErrNotValid
	}

	return val, nil
}
