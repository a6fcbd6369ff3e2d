package schedule

import (
	"fmt"
	"time"
)

// Next returns the first occurrence of the recurrence strictly after now: the
// smallest anchor + k*measure*unit with k a positive integer. When anchor is
// nil the recurrence counts from now itself, so the result is now + measure*unit.
//
// minute through week are wall-time offsets; month and year use calendar
// arithmetic with time.AddDate normalization, so e.g. Jan 31 + 1 month lands on
// Mar 2/3 rather than clamping to Feb 28.
func Next(anchor *time.Time, measure int, unit Unit, now time.Time) (time.Time, error) {
	if measure <= 0 {
		return time.Time{}, fmt.Errorf("%w: measure must be positive, got %d", ErrInvalidSchedule, measure)
	}
	if !unit.Valid() {
		return time.Time{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidSchedule, unit)
	}

	if anchor == nil {
		return addUnits(now, measure, unit), nil
	}

	k := wholeUnits(*anchor, now, unit)/measure + 1
	if k < 1 {
		k = 1
	}
	return addUnits(*anchor, k*measure, unit), nil
}

// addUnits advances t by n whole units. unit must already be validated.
func addUnits(t time.Time, n int, unit Unit) time.Time {
	switch unit {
	case UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, n)
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitMonth:
		return t.AddDate(0, n, 0)
	case UnitYear:
		return t.AddDate(n, 0, 0)
	}
	return t
}

// wholeUnits returns the largest e >= 0 with anchor + e*unit <= now, i.e. the
// number of whole units elapsed. Computed in the unit's own granularity so the
// time-of-day (and, for calendar units, day-of-month) alignment of the anchor
// is preserved. Returns 0 when now is not after anchor.
func wholeUnits(anchor, now time.Time, unit Unit) int {
	if !now.After(anchor) {
		return 0
	}

	var est int
	switch unit {
	case UnitMinute:
		est = int(now.Sub(anchor) / time.Minute)
	case UnitHour:
		est = int(now.Sub(anchor) / time.Hour)
	case UnitDay:
		est = int(now.Sub(anchor) / (24 * time.Hour))
	case UnitWeek:
		est = int(now.Sub(anchor) / (7 * 24 * time.Hour))
	case UnitMonth:
		est = (now.Year()-anchor.Year())*12 + int(now.Month()) - int(anchor.Month())
	case UnitYear:
		est = now.Year() - anchor.Year()
	}

	// The duration estimate can be off by one around DST shifts, and the
	// calendar estimate around short months; nudge until exact.
	for est > 0 && addUnits(anchor, est, unit).After(now) {
		est--
	}
	for !addUnits(anchor, est+1, unit).After(now) {
		est++
	}
	return est
}
