/*
Package scheduling provides the core appointment scheduling engine.

PURPOSE:
  This package contains the domain types and algorithms for scheduling
  service-shop appointments: assigning mechanics and bays (locations) to
  appointments under availability and capacity constraints, computing open
  day slots for a mechanic, and deriving worked/billable hours from logged
  start/end times.

KEY CONCEPTS IN THIS FILE (types.go):
  - Appointment: A scheduled visit with an optional precise time window
  - Mechanic:    A worker who can be assigned to at most one appointment
                 at a time
  - Location:    A service bay with a concurrency capacity
  - WorkLog:     Logged start/end times from which hours are derived
  - Typed IDs:   Strong typing prevents mixing entity identifiers

DESIGN PRINCIPLES:
  1. The engine holds no state: every operation reads through the Store
     interface, validates, and performs at most one write
  2. Precision: hours use decimal.Decimal to avoid floating-point errors
  3. Optional fields are pointers; fallback policy lives in one place
     (ResolveInterval in interval.go)

USAGE:
  assigner := &scheduling.Assigner{Store: store}
  err := assigner.AssignMechanic(ctx, "appt-1", "mech-7")

SEE ALSO:
  - interval.go: Effective intervals and the overlap test
  - assigner.go: Mechanic/location assignment
  - availability.go: Day-slot generation
  - worklog.go: Hours computation
*/
package scheduling

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AppointmentID string
type MechanicID string
type LocationID string
type WorkLogID string

// =============================================================================
// STATUS CODES
// =============================================================================

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// ActiveStatuses is the fixed set of statuses that count toward conflicts
// and location capacity. Completed/cancelled/no-show appointments never
// block a resource.
var ActiveStatuses = []AppointmentStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
}

// IsActive reports whether a status participates in conflict checks.
func (s AppointmentStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

type MechanicStatus string

const (
	MechanicActive    MechanicStatus = "active"
	MechanicInactive  MechanicStatus = "inactive"
	MechanicOnLeave   MechanicStatus = "on_leave"
	MechanicSeparated MechanicStatus = "separated"
)

type LocationStatus string

const (
	LocationInService    LocationStatus = "in_service"
	LocationOutOfService LocationStatus = "out_of_service"
)

// =============================================================================
// ENTITIES - Owned by the external store; the engine holds transient views
// =============================================================================

// Appointment is a scheduled shop visit. MechanicID and LocationID are
// optional foreign keys set by the assigner. ScheduledStart/ScheduledEnd are
// optional precise bounds; AppointmentDate is the nominal fallback.
type Appointment struct {
	ID              AppointmentID
	Description     string
	AppointmentDate time.Time
	ScheduledStart  *time.Time
	ScheduledEnd    *time.Time
	MechanicID      *MechanicID
	LocationID      *LocationID
	Status          AppointmentStatus
	CreatedAt       time.Time
}

// Mechanic is a shop worker. Only active mechanics may be assigned or
// queried for availability.
type Mechanic struct {
	ID        MechanicID
	FirstName string
	LastName  string
	Status    MechanicStatus
}

// DisplayName returns the mechanic's name for error messages and DTOs.
func (m Mechanic) DisplayName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// Location is a service bay. Capacity bounds concurrently overlapping
// active appointments; nil means the default of 1.
type Location struct {
	ID       LocationID
	Name     string
	Status   LocationStatus
	Capacity *int
}

// EffectiveCapacity resolves the capacity default in one place.
func (l Location) EffectiveCapacity() int {
	if l.Capacity == nil || *l.Capacity < 1 {
		return 1
	}
	return *l.Capacity
}

// WorkLog records actual time worked on an appointment. HoursWorked is
// derived from StartTime/EndTime; BillableHours defaults to HoursWorked on
// first computation but is never overwritten once set.
type WorkLog struct {
	ID            WorkLogID
	AppointmentID AppointmentID
	MechanicID    MechanicID
	StartTime     *time.Time
	EndTime       *time.Time
	HoursWorked   decimal.Decimal
	BillableHours *decimal.Decimal
	Notes         string
}
