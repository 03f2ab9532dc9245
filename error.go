package acrsample

import "errors"

var (
	ErrBadAny         = errors.New("bad type")
	ErrBadConfig      = errors.New("bad config")
	ErrBadFormat      = errors.New("bad format")
	ErrExists         = errors.New("already exists")
	ErrMissingData    = errors.New("missing data")
	ErrNotExist       = errors.New("not exist")
	ErrNotFound       = errors.New("not found")
	ErrNotImplemented = errors.New("not implemented")
	ErrNotValid       = errors.New("invalid")
	ErrUnexpected     = errors.New("unexpected")
)
