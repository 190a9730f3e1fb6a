/*
store.go - Persistence interface between the engine and the database

PURPOSE:
  Defines the narrow repository contract the engine reads and writes
  through. Different implementations can use SQLite, PostgreSQL, or
  in-memory storage; the engine never sees SQL.

KEY INTERFACES:
  Store:   Per-entity reads, filtered appointment listing, bounded updates
  TxStore: Transactional extension (atomic read-then-write)

BOUNDED WRITES:
  The engine mutates exactly two things: the resource foreign keys on an
  appointment (UpdateAppointment) and the derived hour fields on a work log
  (UpdateWorkLog). Record lifecycle (create/delete) is owned by the
  surrounding application, not the engine.

READ-THEN-WRITE ATOMICITY:
  The conflict check reads competing appointments and then writes the
  assignment. Two concurrent assigners could both pass the check unless the
  store serializes them; implementations that can do so expose TxStore, and
  the assigner wraps each assignment in WithTx when available. This is a
  required integration contract for any store shared between writers.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - scheduling/store/memory.go: In-memory for testing

SEE ALSO:
  - assigner.go: Read-then-write consumer
  - availability.go, worklog.go: Read-mostly consumers
*/
package scheduling

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Narrow repository interface
// =============================================================================

// AppointmentFilter selects appointments for conflict and availability
// queries. Exactly one of MechanicID/LocationID is normally set. Results are
// ordered by AppointmentDate ascending.
type AppointmentFilter struct {
	MechanicID *MechanicID
	LocationID *LocationID

	// Date range on AppointmentDate, inclusive on both ends. Nil means
	// unbounded on that side.
	DateFrom *time.Time
	DateThru *time.Time

	// Statuses restricts to a status set; empty means all statuses.
	Statuses []AppointmentStatus

	// ExcludeID drops one appointment from the result (the one being
	// assigned, to avoid self-conflict).
	ExcludeID AppointmentID
}

// Store is the record-store collaborator. Get* return (*T)(nil) with a nil
// error when the record does not exist; only infrastructure failures return
// a non-nil error.
type Store interface {
	GetAppointment(ctx context.Context, id AppointmentID) (*Appointment, error)
	GetMechanic(ctx context.Context, id MechanicID) (*Mechanic, error)
	GetLocation(ctx context.Context, id LocationID) (*Location, error)
	GetWorkLog(ctx context.Context, id WorkLogID) (*WorkLog, error)

	// ListAppointments returns appointments matching the filter, ordered by
	// AppointmentDate ascending.
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)

	// UpdateAppointment persists the mutable fields of an existing
	// appointment. Fails if the record no longer exists.
	UpdateAppointment(ctx context.Context, appt *Appointment) error

	// UpdateWorkLog persists the derived hour fields of an existing work log.
	UpdateWorkLog(ctx context.Context, wl *WorkLog) error
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic read-then-write
// =============================================================================

// TxStore extends Store with transaction support. If fn returns an error the
// transaction is rolled back, otherwise committed.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}

// InTx runs fn within a store transaction when the store supports one, and
// directly otherwise. The engine's write paths all go through here.
func InTx(ctx context.Context, s Store, fn func(Store) error) error {
	if tx, ok := s.(TxStore); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(s)
}
