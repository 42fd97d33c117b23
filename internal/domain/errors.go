package domain

import "errors"

var (
	// ErrValidation is returned when caller input is rejected, e.g. an empty
	// title or description, or a missing photo.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a space, location or item id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrStorageIO is returned when the document store or the photo directory
	// fails at the I/O level.
	ErrStorageIO = errors.New("storage failure")
)
