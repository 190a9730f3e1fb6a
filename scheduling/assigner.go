/*
assigner.go - Mechanic and location assignment with conflict checking

PURPOSE:
  Validates and commits a single proposed assignment of a mechanic or a
  location to an appointment. This is point validation only: no search over
  candidate resources, no optimization.

VALIDATION ORDER (fail fast, zero writes on failure):
  1. Appointment exists
  2. Resource exists
  3. Resource is eligible (mechanic active / location in service)
  4. Conflict check over the appointment's effective interval
  5. Single write setting the foreign key

CONFLICT RULES:
  Mechanic: any overlapping active appointment is a conflict. Absolute,
  regardless of which location the competing appointment is at.

  Location: the count of other overlapping active appointments must stay
  strictly below capacity (default 1). An exact-capacity count is rejected;
  the appointment being assigned is excluded from the count.

ATOMICITY:
  Each assignment runs inside the store's transaction scope when available
  (see store.go). Re-running a successful assignment re-validates and
  re-writes the same value.

SEE ALSO:
  - interval.go: The overlap test
  - errors.go: Conflict/Capacity/Ineligible error types
*/
package scheduling

import (
	"context"
	"fmt"
)

// Assigner assigns mechanics and locations to appointments.
type Assigner struct {
	Store Store
}

// NewAssigner creates an assigner backed by the given store.
func NewAssigner(store Store) *Assigner {
	return &Assigner{Store: store}
}

// AssignMechanic assigns a mechanic to an appointment after verifying the
// mechanic exists, is active, and has no overlapping active appointment.
func (a *Assigner) AssignMechanic(ctx context.Context, apptID AppointmentID, mechID MechanicID) error {
	return InTx(ctx, a.Store, func(s Store) error {
		appt, err := getAppointment(ctx, s, apptID)
		if err != nil {
			return err
		}

		mech, err := s.GetMechanic(ctx, mechID)
		if err != nil {
			return fmt.Errorf("load mechanic %s: %w", mechID, err)
		}
		if mech == nil {
			return &NotFoundError{Kind: "mechanic", ID: string(mechID)}
		}
		if mech.Status != MechanicActive {
			return &IneligibleError{Kind: "mechanic", ID: string(mechID), Name: mech.DisplayName(), Status: string(mech.Status)}
		}

		// Fetch every active appointment for the mechanic; the interval
		// test below decides what actually collides.
		candidate := ResolveInterval(*appt)
		competing, err := s.ListAppointments(ctx, AppointmentFilter{
			MechanicID: &mechID,
			Statuses:   ActiveStatuses,
			ExcludeID:  apptID,
		})
		if err != nil {
			return fmt.Errorf("list appointments for mechanic %s: %w", mechID, err)
		}

		if n := CountOverlapping(candidate, competing, apptID); n > 0 {
			return &ConflictError{
				MechanicID:   mechID,
				MechanicName: mech.DisplayName(),
				Interval:     candidate,
				Overlapping:  n,
			}
		}

		appt.MechanicID = &mechID
		if err := s.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("update appointment %s: %w", apptID, err)
		}
		return nil
	})
}

// AssignLocation assigns a location to an appointment. The location must be
// in service and must have fewer than capacity-many other overlapping active
// appointments.
func (a *Assigner) AssignLocation(ctx context.Context, apptID AppointmentID, locID LocationID) error {
	return InTx(ctx, a.Store, func(s Store) error {
		appt, err := getAppointment(ctx, s, apptID)
		if err != nil {
			return err
		}

		loc, err := s.GetLocation(ctx, locID)
		if err != nil {
			return fmt.Errorf("load location %s: %w", locID, err)
		}
		if loc == nil {
			return &NotFoundError{Kind: "location", ID: string(locID)}
		}
		if loc.Status == LocationOutOfService {
			return &IneligibleError{Kind: "location", ID: string(locID), Name: loc.Name, Status: string(loc.Status)}
		}

		candidate := ResolveInterval(*appt)
		competing, err := s.ListAppointments(ctx, AppointmentFilter{
			LocationID: &locID,
			Statuses:   ActiveStatuses,
			ExcludeID:  apptID,
		})
		if err != nil {
			return fmt.Errorf("list appointments for location %s: %w", locID, err)
		}

		capacity := loc.EffectiveCapacity()
		if n := CountOverlapping(candidate, competing, apptID); n >= capacity {
			return &CapacityError{
				LocationID:   locID,
				LocationName: loc.Name,
				Capacity:     capacity,
				Overlapping:  n,
			}
		}

		appt.LocationID = &locID
		if err := s.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("update appointment %s: %w", apptID, err)
		}
		return nil
	})
}

func getAppointment(ctx context.Context, s Store, id AppointmentID) (*Appointment, error) {
	appt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment %s: %w", id, err)
	}
	if appt == nil {
		return nil, &NotFoundError{Kind: "appointment", ID: string(id)}
	}
	return appt, nil
}
