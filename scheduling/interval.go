/*
interval.go - Effective intervals and the overlap test

PURPOSE:
  The single source of truth for "do these two bookings collide". Both the
  assigner and the availability calculator build on the types and functions
  here.

CLOSED-INTERVAL SEMANTICS:
  Two intervals overlap iff a.Start <= b.End AND a.End >= b.Start.
  Bounds are inclusive: an appointment ending at 12:00 conflicts with one
  starting at 12:00. Degenerate (point) intervals participate in the same
  inequality.

EFFECTIVE INTERVAL:
  Appointments may omit precise ScheduledStart/ScheduledEnd bounds. The
  fallback policy lives in ResolveInterval and nowhere else: each missing
  bound falls back to AppointmentDate, so an appointment with neither bound
  collapses to the single instant [AppointmentDate, AppointmentDate].

SEE ALSO:
  - assigner.go: Uses CountOverlapping for conflict/capacity checks
  - availability.go: Uses day-level grouping, not sub-day overlap
*/
package scheduling

import "time"

// Interval is a closed time range. A range with Start after End contains
// no instants and overlaps only intervals spanning both of its bounds.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two closed intervals intersect. Symmetric and
// side-effect free.
func Overlaps(a, b Interval) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

// ResolveInterval returns an appointment's effective interval, applying the
// nominal-date fallback for each missing precise bound.
func ResolveInterval(appt Appointment) Interval {
	iv := Interval{Start: appt.AppointmentDate, End: appt.AppointmentDate}
	if appt.ScheduledStart != nil {
		iv.Start = *appt.ScheduledStart
	}
	if appt.ScheduledEnd != nil {
		iv.End = *appt.ScheduledEnd
	}
	return iv
}

// CountOverlapping counts appointments whose effective interval overlaps the
// candidate. Only active-status appointments count, and the appointment being
// assigned is excluded so re-assignment never conflicts with itself.
func CountOverlapping(candidate Interval, appts []Appointment, excludeID AppointmentID) int {
	count := 0
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		if !a.Status.IsActive() {
			continue
		}
		if Overlaps(candidate, ResolveInterval(a)) {
			count++
		}
	}
	return count
}
