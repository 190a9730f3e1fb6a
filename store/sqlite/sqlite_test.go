package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shop-scheduler/scheduling"
	"github.com/warp/shop-scheduler/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedMechanic(t *testing.T, store *sqlite.Store, id string, status scheduling.MechanicStatus) {
	err := store.SaveMechanic(context.Background(), scheduling.Mechanic{
		ID:        scheduling.MechanicID(id),
		FirstName: "Ana",
		LastName:  "Silva",
		Status:    status,
	})
	require.NoError(t, err)
}

func seedAppointment(t *testing.T, store *sqlite.Store, appt scheduling.Appointment) {
	require.NoError(t, store.SaveAppointment(context.Background(), appt))
}

func ts(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestStore_AppointmentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := ts(10, 9)
	end := ts(10, 11)
	mechID := scheduling.MechanicID("mech-1")

	seedMechanic(t, store, "mech-1", scheduling.MechanicActive)
	seedAppointment(t, store, scheduling.Appointment{
		ID:              "appt-1",
		Description:     "brake service",
		AppointmentDate: ts(10, 0),
		ScheduledStart:  &start,
		ScheduledEnd:    &end,
		MechanicID:      &mechID,
		Status:          scheduling.StatusConfirmed,
	})

	appt, err := store.GetAppointment(ctx, "appt-1")
	require.NoError(t, err)
	require.NotNil(t, appt)

	assert.Equal(t, "brake service", appt.Description)
	assert.True(t, appt.AppointmentDate.Equal(ts(10, 0)))
	require.NotNil(t, appt.ScheduledStart)
	assert.True(t, appt.ScheduledStart.Equal(start))
	require.NotNil(t, appt.MechanicID)
	assert.Equal(t, mechID, *appt.MechanicID)
	assert.Nil(t, appt.LocationID)
	assert.Equal(t, scheduling.StatusConfirmed, appt.Status)
}

func TestStore_MissingRecordsReturnNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	appt, err := store.GetAppointment(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, appt)

	mech, err := store.GetMechanic(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, mech)

	loc, err := store.GetLocation(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, loc)

	wl, err := store.GetWorkLog(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, wl)
}

func TestStore_WorkLogRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := ts(10, 9)
	billable := decimal.NewFromFloat(3.25)
	require.NoError(t, store.SaveWorkLog(ctx, scheduling.WorkLog{
		ID:            "wl-1",
		AppointmentID: "appt-1",
		MechanicID:    "mech-1",
		StartTime:     &start,
		HoursWorked:   decimal.NewFromFloat(4.5),
		BillableHours: &billable,
		Notes:         "replaced pads",
	}))

	wl, err := store.GetWorkLog(ctx, "wl-1")
	require.NoError(t, err)
	require.NotNil(t, wl)

	assert.Equal(t, "4.50", wl.HoursWorked.StringFixed(2))
	require.NotNil(t, wl.BillableHours)
	assert.Equal(t, "3.25", wl.BillableHours.StringFixed(2))
	require.NotNil(t, wl.StartTime)
	assert.True(t, wl.StartTime.Equal(start))
	assert.Nil(t, wl.EndTime)
	assert.Equal(t, "replaced pads", wl.Notes)
}

func TestStore_UpdateMissingRecord_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateAppointment(ctx, &scheduling.Appointment{
		ID:              "ghost",
		AppointmentDate: ts(10, 0),
		Status:          scheduling.StatusScheduled,
	})
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	err = store.UpdateWorkLog(ctx, &scheduling.WorkLog{ID: "ghost"})
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

// =============================================================================
// FILTERED LISTING
// =============================================================================

func TestStore_ListAppointments_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mechA := scheduling.MechanicID("mech-a")
	mechB := scheduling.MechanicID("mech-b")

	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-1", AppointmentDate: ts(10, 9), MechanicID: &mechA,
		Status: scheduling.StatusScheduled,
	})
	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-2", AppointmentDate: ts(12, 9), MechanicID: &mechA,
		Status: scheduling.StatusCancelled,
	})
	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-3", AppointmentDate: ts(14, 9), MechanicID: &mechA,
		Status: scheduling.StatusConfirmed,
	})
	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-4", AppointmentDate: ts(11, 9), MechanicID: &mechB,
		Status: scheduling.StatusScheduled,
	})

	// Equality on mechanic, status-set membership, id exclusion
	appts, err := store.ListAppointments(ctx, scheduling.AppointmentFilter{
		MechanicID: &mechA,
		Statuses:   scheduling.ActiveStatuses,
		ExcludeID:  "appt-3",
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, scheduling.AppointmentID("appt-1"), appts[0].ID)

	// Date range, ascending order
	from := ts(10, 0)
	thru := ts(13, 0)
	appts, err = store.ListAppointments(ctx, scheduling.AppointmentFilter{
		DateFrom: &from,
		DateThru: &thru,
	})
	require.NoError(t, err)
	require.Len(t, appts, 3)
	assert.Equal(t, scheduling.AppointmentID("appt-1"), appts[0].ID)
	assert.Equal(t, scheduling.AppointmentID("appt-4"), appts[1].ID)
	assert.Equal(t, scheduling.AppointmentID("appt-2"), appts[2].ID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-1", AppointmentDate: ts(10, 9),
		Status: scheduling.StatusScheduled,
	})

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s scheduling.Store) error {
		appt, err := s.GetAppointment(ctx, "appt-1")
		if err != nil {
			return err
		}
		mechID := scheduling.MechanicID("mech-1")
		appt.MechanicID = &mechID
		if err := s.UpdateAppointment(ctx, appt); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	appt, err := store.GetAppointment(ctx, "appt-1")
	require.NoError(t, err)
	assert.Nil(t, appt.MechanicID, "rolled-back write must not be visible")
}

// =============================================================================
// ENGINE OVER SQLITE - the production wiring
// =============================================================================

func TestAssigner_OverSQLite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	assigner := scheduling.NewAssigner(store)

	seedMechanic(t, store, "mech-1", scheduling.MechanicActive)

	start1 := ts(10, 9)
	end1 := ts(10, 11)
	mechID := scheduling.MechanicID("mech-1")
	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-busy", AppointmentDate: ts(10, 0),
		ScheduledStart: &start1, ScheduledEnd: &end1,
		MechanicID: &mechID, Status: scheduling.StatusScheduled,
	})

	start2 := ts(10, 10)
	end2 := ts(10, 12)
	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-new", AppointmentDate: ts(10, 0),
		ScheduledStart: &start2, ScheduledEnd: &end2,
		Status: scheduling.StatusScheduled,
	})

	err := assigner.AssignMechanic(ctx, "appt-new", "mech-1")
	assert.ErrorIs(t, err, scheduling.ErrConflict)

	appt, err := store.GetAppointment(ctx, "appt-new")
	require.NoError(t, err)
	assert.Nil(t, appt.MechanicID)

	// A disjoint afternoon slot goes through
	start3 := ts(10, 14)
	end3 := ts(10, 16)
	seedAppointment(t, store, scheduling.Appointment{
		ID: "appt-later", AppointmentDate: ts(10, 0),
		ScheduledStart: &start3, ScheduledEnd: &end3,
		Status: scheduling.StatusScheduled,
	})

	require.NoError(t, assigner.AssignMechanic(ctx, "appt-later", "mech-1"))
	appt, err = store.GetAppointment(ctx, "appt-later")
	require.NoError(t, err)
	require.NotNil(t, appt.MechanicID)
	assert.Equal(t, mechID, *appt.MechanicID)
}

func TestWorkLogCalculator_OverSQLite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	calc := scheduling.NewWorkLogCalculator(store)

	start := ts(10, 9)
	end := start.Add(4*time.Hour + 30*time.Minute)
	require.NoError(t, store.SaveWorkLog(ctx, scheduling.WorkLog{
		ID: "wl-1", AppointmentID: "appt-1", MechanicID: "mech-1",
		StartTime: &start, EndTime: &end,
	}))

	hours, err := calc.ComputeHours(ctx, "wl-1")
	require.NoError(t, err)
	assert.Equal(t, "4.50", hours.StringFixed(2))

	wl, err := store.GetWorkLog(ctx, "wl-1")
	require.NoError(t, err)
	assert.Equal(t, "4.50", wl.HoursWorked.StringFixed(2))
	require.NotNil(t, wl.BillableHours)
	assert.Equal(t, "4.50", wl.BillableHours.StringFixed(2))
}
