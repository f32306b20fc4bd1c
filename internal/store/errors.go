package store

import "errors"

// Sentinel errors returned by the registry. The API layer maps each one to a
// single HTTP status.
var (
	// ErrValidation indicates missing or invalid required input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates no item has the requested id.
	ErrNotFound = errors.New("not found")

	// ErrNoPhoto indicates the item exists but has no photo set.
	ErrNoPhoto = errors.New("no photo")
)
