/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All expected failure kinds in one place. Every validation failure is a
  structured, recoverable outcome carrying the offending ids (and display
  names where available) so callers can render it without a further lookup.

ERROR CATEGORIES:
  1. NotFound        - appointment/mechanic/location/work-log absent
  2. Ineligible      - inactive mechanic or out-of-service location
  3. Conflict        - mechanic double-booking
  4. CapacityExceeded - location over capacity
  5. InvalidState    - work log missing required timestamps

  Anything else (store connectivity, scan failures) is unexpected and
  propagates as a plain wrapped error rather than a structured outcome.

USAGE:
  err := assigner.AssignMechanic(ctx, apptID, mechID)
  if errors.Is(err, scheduling.ErrConflict) {
      // expected: mechanic already booked, nothing was written
  }

SEE ALSO:
  - assigner.go, availability.go, worklog.go: Producers of these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package scheduling

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrIneligible is returned when a resource exists but may not be
	// assigned (inactive mechanic, out-of-service location).
	ErrIneligible = errors.New("resource not eligible for assignment")

	// ErrConflict is returned when a mechanic has any overlapping active
	// appointment. Mechanic conflicts are absolute: zero tolerance,
	// regardless of location.
	ErrConflict = errors.New("mechanic has a conflicting appointment")

	// ErrCapacityExceeded is returned when a location already hosts
	// capacity-many overlapping active appointments.
	ErrCapacityExceeded = errors.New("location capacity exceeded")

	// ErrInvalidState is returned when a work log is missing the start or
	// end timestamp required to compute hours.
	ErrInvalidState = errors.New("work log missing required timestamps")
)

// =============================================================================
// STRUCTURED ERRORS - Carry identifying context
// =============================================================================

// NotFoundError identifies which record of which kind was missing.
type NotFoundError struct {
	Kind string // "appointment", "mechanic", "location", "work log"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IneligibleError describes why a resource cannot be assigned.
type IneligibleError struct {
	Kind   string
	ID     string
	Name   string
	Status string
}

func (e *IneligibleError) Error() string {
	label := e.ID
	if e.Name != "" {
		label = fmt.Sprintf("%s (%s)", e.Name, e.ID)
	}
	return fmt.Sprintf("%s %s is %s and cannot be assigned", e.Kind, label, e.Status)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// ConflictError reports a mechanic double-booking.
type ConflictError struct {
	MechanicID   MechanicID
	MechanicName string
	Interval     Interval
	Overlapping  int
}

func (e *ConflictError) Error() string {
	label := string(e.MechanicID)
	if e.MechanicName != "" {
		label = fmt.Sprintf("%s (%s)", e.MechanicName, e.MechanicID)
	}
	return fmt.Sprintf("mechanic %s has %d overlapping appointment(s) between %s and %s",
		label, e.Overlapping, e.Interval.Start.Format("2006-01-02 15:04"), e.Interval.End.Format("2006-01-02 15:04"))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// CapacityError reports a location at or over its concurrency ceiling.
type CapacityError struct {
	LocationID   LocationID
	LocationName string
	Capacity     int
	Overlapping  int
}

func (e *CapacityError) Error() string {
	label := string(e.LocationID)
	if e.LocationName != "" {
		label = fmt.Sprintf("%s (%s)", e.LocationName, e.LocationID)
	}
	return fmt.Sprintf("location %s is at capacity: %d overlapping appointment(s), capacity %d",
		label, e.Overlapping, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// InvalidStateError identifies which work-log timestamp is missing.
type InvalidStateError struct {
	WorkLogID WorkLogID
	Missing   string // "start time", "end time"
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("work log %s has no %s; cannot compute hours", e.WorkLogID, e.Missing)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether the error is an expected validation outcome
// (as opposed to a store-layer failure).
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrIneligible) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInvalidState)
}
