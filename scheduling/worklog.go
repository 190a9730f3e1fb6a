/*
worklog.go - Worked and billable hours from logged timestamps

PURPOSE:
  Derives HoursWorked from a work log's start/end timestamps and defaults
  BillableHours on first computation.

ROUNDING:
  Elapsed time converts to hours rounded half-up to exactly 2 decimal
  places, using decimal.Decimal to keep the arithmetic exact. 4h30m is
  4.5 hours; 45 seconds is 0.0125 hours and rounds to 0.01.

BILLABLE HOURS:
  BillableHours is set to HoursWorked only when previously unset. Once a
  value exists (including a manual override) recomputation never touches
  it; only HoursWorked is refreshed.

SEE ALSO:
  - types.go: WorkLog fields
  - errors.go: InvalidState for missing timestamps
*/
package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WorkLogCalculator computes and persists derived hours for work logs.
type WorkLogCalculator struct {
	Store Store
}

// NewWorkLogCalculator creates a calculator backed by the given store.
func NewWorkLogCalculator(store Store) *WorkLogCalculator {
	return &WorkLogCalculator{Store: store}
}

// ComputeHours computes hours worked for a work log and persists the result.
// On any expected failure it returns decimal.Zero alongside the structured
// error, and nothing is persisted.
func (c *WorkLogCalculator) ComputeHours(ctx context.Context, id WorkLogID) (decimal.Decimal, error) {
	var hours decimal.Decimal
	err := InTx(ctx, c.Store, func(s Store) error {
		wl, err := s.GetWorkLog(ctx, id)
		if err != nil {
			return fmt.Errorf("load work log %s: %w", id, err)
		}
		if wl == nil {
			return &NotFoundError{Kind: "work log", ID: string(id)}
		}
		if wl.StartTime == nil {
			return &InvalidStateError{WorkLogID: id, Missing: "start time"}
		}
		if wl.EndTime == nil {
			return &InvalidStateError{WorkLogID: id, Missing: "end time"}
		}

		hours = HoursBetween(*wl.StartTime, *wl.EndTime)

		wl.HoursWorked = hours
		if wl.BillableHours == nil {
			billable := hours
			wl.BillableHours = &billable
		}
		if err := s.UpdateWorkLog(ctx, wl); err != nil {
			return fmt.Errorf("update work log %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return hours, nil
}

// HoursBetween converts the elapsed time from start to end into hours,
// rounded half-up to 2 decimal places.
func HoursBetween(start, end time.Time) decimal.Decimal {
	seconds := int64(end.Sub(start) / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)).Round(2)
}
