// Package common contains shared constants and sentinel errors used across
// cartsync components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Engine authorization: the current session's role may not touch the cart.
	ErrNotPermitted = errors.New("not permitted")

	// Validation failures surfaced to the user as typed results.
	ErrMissingDates  = errors.New("start and end dates are required")
	ErrDuplicateItem = errors.New("billboard is already in the cart")
	ErrUnavailable   = errors.New("billboard is not available for the selected dates")

	// Transfer outcomes.
	ErrNoValidItems   = errors.New("no valid items to transfer")
	ErrAllUnavailable = errors.New("all items became unavailable")

	// Backend/transport failures.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")
)
