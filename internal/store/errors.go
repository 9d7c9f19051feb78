package store

import "errors"

// ErrNotFound is returned when no alert record matches the given ID.
var ErrNotFound = errors.New("alert not found")

// ErrInvalidTransition is returned when an alert's current status does not
// permit the requested lifecycle change.
var ErrInvalidTransition = errors.New("invalid status transition")
