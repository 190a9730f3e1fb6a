package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shop-scheduler/scheduling"
	"github.com/warp/shop-scheduler/scheduling/store"
)

func newAvailabilityFixture() (*scheduling.AvailabilityCalculator, *store.Memory) {
	mem := store.NewMemory()
	return scheduling.NewAvailabilityCalculator(mem), mem
}

// date returns midnight UTC; March 3, 2025 is a Monday.
func date(day int) time.Time {
	return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC)
}

func TestMechanicAvailability_MissingMechanic_EmptySequence(t *testing.T) {
	// Missing mechanic is a "no availability" signal, not an error
	calc, _ := newAvailabilityFixture()

	slots, err := calc.MechanicAvailability(context.Background(), "mech-missing", date(3), date(7))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestMechanicAvailability_InactiveMechanic_EmptySequence(t *testing.T) {
	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicOnLeave))

	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", date(3), date(7))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestMechanicAvailability_FullWeek_FiveBusinessDays(t *testing.T) {
	// GIVEN: A free mechanic and a Monday-through-Sunday range
	// THEN: Exactly 5 slots, dates strictly increasing, weekends skipped

	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicActive))

	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", date(3), date(9))
	require.NoError(t, err)
	require.Len(t, slots, 5)

	for i, slot := range slots {
		assert.Equal(t, date(3+i), slot.Date)
		assert.True(t, slot.Available)
		assert.Zero(t, slot.AppointmentCount)
		assert.Equal(t, 8, slot.WindowStart.Hour())
		assert.Equal(t, 17, slot.WindowEnd.Hour())
		if i > 0 {
			assert.True(t, slots[i-1].Date.Before(slot.Date), "dates must be strictly increasing")
		}
	}
}

func TestMechanicAvailability_BookedDaysCarryCounts(t *testing.T) {
	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicActive))

	// Two appointments Tuesday, one Wednesday, one cancelled Thursday
	tue1 := date(4).Add(9 * time.Hour)
	tue2 := date(4).Add(13 * time.Hour)
	wed := date(5).Add(10 * time.Hour)
	thu := date(6).Add(10 * time.Hour)

	mem.PutAppointment(withMechanic(appointment("appt-tue-1", tue1, tue1.Add(2*time.Hour)), "mech-1"))
	mem.PutAppointment(withMechanic(appointment("appt-tue-2", tue2, tue2.Add(time.Hour)), "mech-1"))
	mem.PutAppointment(withMechanic(appointment("appt-wed", wed, wed.Add(time.Hour)), "mech-1"))

	cancelled := withMechanic(appointment("appt-thu", thu, thu.Add(time.Hour)), "mech-1")
	cancelled.Status = scheduling.StatusCancelled
	mem.PutAppointment(cancelled)

	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", date(3), date(7))
	require.NoError(t, err)
	require.Len(t, slots, 5)

	assert.True(t, slots[0].Available, "Monday is free")

	assert.False(t, slots[1].Available, "Tuesday is booked")
	assert.Equal(t, 2, slots[1].AppointmentCount)

	assert.False(t, slots[2].Available, "Wednesday is booked")
	assert.Equal(t, 1, slots[2].AppointmentCount)

	assert.True(t, slots[3].Available, "cancelled appointment does not claim Thursday")
	assert.True(t, slots[4].Available, "Friday is free")
}

func TestMechanicAvailability_WeekendOnlyRange_NoSlots(t *testing.T) {
	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicActive))

	// March 8-9, 2025 is a Saturday and Sunday
	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", date(8), date(9))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestMechanicAvailability_SingleDayRange(t *testing.T) {
	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicActive))

	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", date(5), date(5))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, date(5), slots[0].Date)
}

func TestMechanicAvailability_OtherMechanicsAppointmentsIgnored(t *testing.T) {
	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicActive))
	mem.PutMechanic(mechanic("mech-2", scheduling.MechanicActive))

	wed := date(5).Add(10 * time.Hour)
	mem.PutAppointment(withMechanic(appointment("appt-other", wed, wed.Add(time.Hour)), "mech-2"))

	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", date(5), date(5))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Available)
}

func TestMechanicAvailability_AppointmentOnThruDayCountsAsBusy(t *testing.T) {
	// GIVEN: A 10:00 booking on the final day of a midnight-to-midnight range
	// THEN: The final day's slot reports busy; a day claims its appointments
	//       regardless of the time-of-day carried by the range bound

	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicActive))

	friday := date(7).Add(10 * time.Hour)
	mem.PutAppointment(withMechanic(appointment("appt-fri", friday, friday.Add(time.Hour)), "mech-1"))

	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", date(3), date(7))
	require.NoError(t, err)
	require.Len(t, slots, 5)

	last := slots[4]
	assert.Equal(t, date(7), last.Date)
	assert.False(t, last.Available, "a booking on the thru day must mark it busy")
	assert.Equal(t, 1, last.AppointmentCount)
}

func TestMechanicAvailability_WindowPinnedAcrossClockShift(t *testing.T) {
	// Cairo springs forward at midnight on Friday, April 25, 2025: that day
	// has no 00:00 and its first instant is 01:00. The workday window must
	// still read 08:00-17:00 on the wall clock.

	cairo, err := time.LoadLocation("Africa/Cairo")
	require.NoError(t, err)

	calc, mem := newAvailabilityFixture()
	mem.PutMechanic(mechanic("mech-1", scheduling.MechanicActive))

	from := time.Date(2025, time.April, 24, 0, 0, 0, 0, cairo) // Thursday
	thru := time.Date(2025, time.April, 25, 12, 0, 0, 0, cairo)

	slots, err := calc.MechanicAvailability(context.Background(), "mech-1", from, thru)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	for _, slot := range slots {
		assert.Equal(t, 8, slot.WindowStart.Hour())
		assert.Equal(t, 17, slot.WindowEnd.Hour())
	}
}
