package admin

import "errors"

var (
	ErrBadModel  = errors.New("bad model admin")
	ErrCSRF      = errors.New("csrf token missing or incorrect")
	ErrNoSession = errors.New("no session")
)
