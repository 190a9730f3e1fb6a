package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shop-scheduler/scheduling"
	"github.com/warp/shop-scheduler/scheduling/store"
)

func newWorkLogFixture() (*scheduling.WorkLogCalculator, *store.TxMemory) {
	mem := store.NewTxMemory()
	return scheduling.NewWorkLogCalculator(mem), mem
}

func workLog(id string, start, end *time.Time) scheduling.WorkLog {
	return scheduling.WorkLog{
		ID:            scheduling.WorkLogID(id),
		AppointmentID: "appt-1",
		MechanicID:    "mech-1",
		StartTime:     start,
		EndTime:       end,
	}
}

// =============================================================================
// ROUNDING
// =============================================================================

func TestHoursBetween(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"four and a half hours", 4*time.Hour + 30*time.Minute, "4.5"},
		{"45 seconds rounds to 0.01", 45 * time.Second, "0.01"},
		{"one minute", time.Minute, "0.02"},
		{"zero", 0, "0"},
		{"54 seconds is exactly 0.015 and rounds up", 54 * time.Second, "0.02"},
		{"ten minutes", 10 * time.Minute, "0.17"}, // 0.1666... rounds up
		{"full day", 24 * time.Hour, "24"},
	}

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scheduling.HoursBetween(start, start.Add(tc.elapsed))
			assert.Equal(t, tc.want, got.String())
		})
	}
}

// =============================================================================
// COMPUTE HOURS
// =============================================================================

func TestComputeHours_PersistsWorkedAndDefaultsBillable(t *testing.T) {
	// GIVEN: A work log from 09:00 to 13:30
	// THEN: hoursWorked = 4.50, billableHours defaults to the same value

	calc, mem := newWorkLogFixture()
	ctx := context.Background()

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(4*time.Hour + 30*time.Minute)
	mem.PutWorkLog(workLog("wl-1", &start, &end))

	hours, err := calc.ComputeHours(ctx, "wl-1")
	require.NoError(t, err)
	assert.Equal(t, "4.50", hours.StringFixed(2))

	wl, err := mem.GetWorkLog(ctx, "wl-1")
	require.NoError(t, err)
	assert.Equal(t, "4.50", wl.HoursWorked.StringFixed(2))
	require.NotNil(t, wl.BillableHours)
	assert.Equal(t, "4.50", wl.BillableHours.StringFixed(2))
}

func TestComputeHours_SubMinuteDuration(t *testing.T) {
	calc, mem := newWorkLogFixture()
	ctx := context.Background()

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Second)
	mem.PutWorkLog(workLog("wl-1", &start, &end))

	hours, err := calc.ComputeHours(ctx, "wl-1")
	require.NoError(t, err)
	assert.Equal(t, "0.01", hours.StringFixed(2))
}

func TestComputeHours_NeverOverwritesBillable(t *testing.T) {
	// GIVEN: A computed work log whose billable hours were manually overridden
	// WHEN: Recomputing
	// THEN: hoursWorked refreshes, billableHours keeps the override

	calc, mem := newWorkLogFixture()
	ctx := context.Background()

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	mem.PutWorkLog(workLog("wl-1", &start, &end))

	_, err := calc.ComputeHours(ctx, "wl-1")
	require.NoError(t, err)

	// Manual override, and a longer end time
	wl, err := mem.GetWorkLog(ctx, "wl-1")
	require.NoError(t, err)
	override := decimal.NewFromFloat(2.5)
	wl.BillableHours = &override
	newEnd := start.Add(6 * time.Hour)
	wl.EndTime = &newEnd
	mem.PutWorkLog(*wl)

	_, err = calc.ComputeHours(ctx, "wl-1")
	require.NoError(t, err)

	wl, err = mem.GetWorkLog(ctx, "wl-1")
	require.NoError(t, err)
	assert.Equal(t, "6.00", wl.HoursWorked.StringFixed(2), "worked hours always refresh")
	require.NotNil(t, wl.BillableHours)
	assert.Equal(t, "2.50", wl.BillableHours.StringFixed(2), "manual billable override survives recomputation")
}

func TestComputeHours_MissingWorkLog_NotFound(t *testing.T) {
	calc, _ := newWorkLogFixture()

	hours, err := calc.ComputeHours(context.Background(), "wl-missing")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
	assert.True(t, hours.IsZero(), "zero hours is the safe default on failure")
}

func TestComputeHours_MissingEndTime_InvalidState(t *testing.T) {
	// GIVEN: A work log with no end time
	// THEN: InvalidState, zero hours, and nothing persisted

	calc, mem := newWorkLogFixture()
	ctx := context.Background()

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	mem.PutWorkLog(workLog("wl-1", &start, nil))

	hours, err := calc.ComputeHours(ctx, "wl-1")
	assert.ErrorIs(t, err, scheduling.ErrInvalidState)
	assert.True(t, hours.IsZero())

	var stateErr *scheduling.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "end time", stateErr.Missing)

	wl, err := mem.GetWorkLog(ctx, "wl-1")
	require.NoError(t, err)
	assert.True(t, wl.HoursWorked.IsZero(), "nothing persisted on failure")
	assert.Nil(t, wl.BillableHours)
}

func TestComputeHours_MissingStartTime_InvalidState(t *testing.T) {
	calc, mem := newWorkLogFixture()
	ctx := context.Background()

	end := time.Date(2025, time.March, 10, 17, 0, 0, 0, time.UTC)
	mem.PutWorkLog(workLog("wl-1", nil, &end))

	_, err := calc.ComputeHours(ctx, "wl-1")
	assert.ErrorIs(t, err, scheduling.ErrInvalidState)

	var stateErr *scheduling.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "start time", stateErr.Missing)
}
