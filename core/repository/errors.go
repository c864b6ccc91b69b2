package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when a commit reuses an idempotency key that
// already succeeded. The caller treats the original commit as authoritative.
var ErrDuplicateKey = errors.New("idempotency key already committed")

// ConflictError reports that inventory changed between analyze and apply:
// the requested tons exceed what the point can still supply. Apply recomputes
// once on conflict and surfaces this error if it persists.
type ConflictError struct {
	PointID   string
	Requested float64
	Available float64
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("inventory conflict at %s: requested %.1ft, available %.1ft",
		e.PointID, e.Requested, e.Available)
}
