package activities

import "errors"

var (
	ErrNotFound         = errors.New("activity not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("activity store unavailable")
	// ErrQuery signals a malformed query or row; it should never reach users in normal operation.
	ErrQuery = errors.New("activity query error")
)
