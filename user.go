package acrsample

import (
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminHomePath is where staff users land after logging in.
	AdminHomePath = "/admin/"

	// AdminLoginPath is where users without access are sent.
	AdminLoginPath = "/admin/login/"
)

// A User is the core entity that authenticates to the admin site.
//
// An agent's HTTP requests are authenticated first by a specific request
// with username & password data matching credentials stored on a DB record for a User.
// Upon a match, a session is created and stored.
// Further requests are authenticated by referencing that session.
type User struct {
	Model
	Username    string       `gorm:"uniqueIndex;not null" json:"username"`
	Email       string       `json:"email"`
	Password    []byte       `json:"-"`
	IsActive    bool         `gorm:"not null;default:true" json:"isActive"`
	IsStaff     bool         `gorm:"not null;default:false" json:"isStaff"`
	IsSuperuser bool         `gorm:"not null;default:false" json:"isSuperuser"`
	LastLogin   sql.NullTime `json:"lastLogin"`
}

// NewUser constructs an active *User with the password hashed.
func NewUser(username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be blank", ErrMissingData)
	}

	u := &User{Username: username, Email: strings.TrimSpace(email), IsActive: true}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}

	return u, nil
}

// CheckPassword asserts whether password matches the User's stored hash.
func (u User) CheckPassword(password string) bool {
	if len(u.Password) == 0 {
		return false
	}

	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}

// SetPassword hashes password and stores it on the User.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password cannot be blank", ErrMissingData)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotValid, err)
	}

	u.Password = b
	return nil
}

// HasAccess asserts whether the User's properties give it general
// access to the app.
func (u User) HasAccess() bool { return u.IsActive }

// CanAccessAdmin asserts whether the User may use the admin site.
func (u User) CanAccessAdmin() bool { return u.IsActive && u.IsStaff }

// HomePath returns the relative URL path designated
// as the default resource the User can access.
func (u User) HomePath() string {
	if !u.CanAccessAdmin() {
		return AdminLoginPath
	}

	return AdminHomePath
}

// GetID returns the User's primary key.
func (u User) GetID() uint { return u.ID }

// GetEmail returns the User's email or, when unset, its username.
func (u User) GetEmail() string {
	if u.Email == "" {
		return u.Username
	}

	return u.Email
}
