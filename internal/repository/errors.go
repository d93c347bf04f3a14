package repository

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("upstream unavailable")
	ErrBadPayload  = errors.New("bad upstream payload")
)
