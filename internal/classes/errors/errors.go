package errors

import "errors"

var (
	ErrInvalidID = errors.New("invalid class ID format")

	ErrSessionNotFound = errors.New("class session not found")

	ErrSessionFull = errors.New("class session is at capacity")
)
