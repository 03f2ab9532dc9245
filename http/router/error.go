package router

import "errors"

var (
	ErrBadRoute = errors.New("bad route")
	ErrNoRoute  = errors.New("no such route")
)
