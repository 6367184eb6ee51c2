package filegate

import "errors"

var (
	// ErrNotFound is returned when an object does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when request input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned when the storage backend fails
	ErrUnavailable = errors.New("storage unavailable")
	// ErrUnauthorized is returned when a signed URL does not verify
	ErrUnauthorized = errors.New("unauthorized")
)
