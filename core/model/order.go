package model

import (
	"fmt"
	"time"
)

// Priority classifies how quickly an order must be served.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityUrgent
)

// String returns a human-readable representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "Urgent"
	default:
		return "Normal"
	}
}

// OrderStatus tracks an order through its lifecycle.
type OrderStatus int

const (
	StatusPending OrderStatus = iota
	StatusApproved
	StatusAllocated
	StatusLoading
	StatusEnRoute
	StatusCompleted
	StatusRejected
)

// String returns a human-readable representation of the status.
func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusAllocated:
		return "Allocated"
	case StatusLoading:
		return "Loading"
	case StatusEnRoute:
		return "EnRoute"
	case StatusCompleted:
		return "Completed"
	case StatusRejected:
		return "Rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the order lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Order is a customer transport order for a single material.
type Order struct {
	ID           string
	Customer     string
	Cargo        string
	QuantityTons float64
	Destination  string
	Priority     Priority
	Status       OrderStatus
	CreatedAt    time.Time
}

// Validate checks that the order is sound at the boundary.
func (o Order) Validate() error {
	if o.Cargo == "" {
		return ValidationError{Field: "cargo", Reason: "cargo is required"}
	}
	if o.QuantityTons <= 0 {
		return ValidationError{Field: "quantityTons", Reason: "tonnage must be positive"}
	}
	if o.Destination == "" {
		return ValidationError{Field: "destination", Reason: "destination is required"}
	}
	return nil
}

// CanTransition reports whether the order may move to the target status.
// Rejected is reachable only from Pending; completed and rejected orders
// never change again.
func (o Order) CanTransition(to OrderStatus) bool {
	if o.Status.Terminal() {
		return false
	}
	switch to {
	case StatusApproved:
		return o.Status == StatusPending
	case StatusRejected:
		return o.Status == StatusPending
	case StatusAllocated:
		return o.Status == StatusApproved
	case StatusLoading:
		return o.Status == StatusAllocated
	case StatusEnRoute:
		return o.Status == StatusLoading
	case StatusCompleted:
		return o.Status == StatusEnRoute
	default:
		return false
	}
}

// ValidationError reports an out-of-range or missing field supplied by a
// caller. The offending field is returned rather than silently clamped.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
