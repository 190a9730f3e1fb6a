/*
availability.go - Day-granularity availability slots for a mechanic

PURPOSE:
  Produces one DaySlot per business day in a date range: either an open
  workday window, or busy with a count of the appointments claiming that
  day. Deliberately coarse: no sub-day free/busy windows are computed even
  when a day is only partially booked.

RULES:
  - Missing or non-active mechanic: empty sequence, nil error. "No
    availability" is a signal, not a failure.
  - Weekends (Saturday, Sunday) contribute no slot.
  - The workday window is fixed at 08:00-17:00.
  - A day claims an appointment when the appointment's nominal date falls on
    that calendar day, compared in local date terms.

SEE ALSO:
  - assigner.go: Precise interval-level conflict checking
  - types.go: Mechanic status codes
*/
package scheduling

import (
	"context"
	"fmt"
	"time"
)

// Workday window bounds, in hours from midnight.
const (
	WorkdayStartHour = 8
	WorkdayEndHour   = 17
)

// DaySlot describes one business day for a mechanic: an open workday window,
// or busy with the number of appointments claiming the day.
type DaySlot struct {
	Date             time.Time
	WindowStart      time.Time
	WindowEnd        time.Time
	Available        bool
	AppointmentCount int
}

// AvailabilityCalculator computes per-day slots for a mechanic over a range.
type AvailabilityCalculator struct {
	Store Store
}

// NewAvailabilityCalculator creates a calculator backed by the given store.
func NewAvailabilityCalculator(store Store) *AvailabilityCalculator {
	return &AvailabilityCalculator{Store: store}
}

// MechanicAvailability returns the fully materialized slot sequence for the
// calendar days of [from, thru], ascending, weekends excluded.
func (c *AvailabilityCalculator) MechanicAvailability(ctx context.Context, mechID MechanicID, from, thru time.Time) ([]DaySlot, error) {
	mech, err := c.Store.GetMechanic(ctx, mechID)
	if err != nil {
		return nil, fmt.Errorf("load mechanic %s: %w", mechID, err)
	}
	if mech == nil || mech.Status != MechanicActive {
		return []DaySlot{}, nil
	}

	// A day claims any appointment whose date falls on that calendar day,
	// so the fetch bounds must cover the whole first and last days, not
	// just the instants the caller passed.
	loc := from.Location()
	fromDay := startOfDay(from.In(loc))
	thruDay := startOfDay(thru.In(loc))
	fetchThru := thruDay.AddDate(0, 0, 1)

	appts, err := c.Store.ListAppointments(ctx, AppointmentFilter{
		MechanicID: &mechID,
		DateFrom:   &fromDay,
		DateThru:   &fetchThru,
		Statuses:   ActiveStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments for mechanic %s: %w", mechID, err)
	}

	// Count appointments per calendar day in the range's location.
	byDay := make(map[time.Time]int, len(appts))
	for _, a := range appts {
		byDay[startOfDay(a.AppointmentDate.In(loc))]++
	}

	var slots []DaySlot
	for day := fromDay; !day.After(thruDay); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		n := byDay[day]
		slots = append(slots, DaySlot{
			Date:             day,
			WindowStart:      atHour(day, WorkdayStartHour),
			WindowEnd:        atHour(day, WorkdayEndHour),
			Available:        n == 0,
			AppointmentCount: n,
		})
	}
	return slots, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// atHour pins a wall-clock hour on the day, so the window stays 08:00-17:00
// local even when a daylight-saving shift falls earlier in the day.
func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}
