package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced template, element or version is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for out-of-range or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)
