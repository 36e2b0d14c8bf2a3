package repository

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist (or is not
	// visible to the requesting creator).
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail indicates another user already owns the email.
	ErrDuplicateEmail = errors.New("email already registered")
)
