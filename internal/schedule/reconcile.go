package schedule

import (
	"fmt"
	"time"
)

// Reconcile computes the field changes that bring rec into a consistent state
// at the given instant. markAsSent is true when the caller just delivered the
// template successfully; it only matters for fixed-date schedules.
//
// The result is advisory: nothing is persisted here. On error no update is
// returned and the caller must leave the record untouched.
func Reconcile(rec Record, now time.Time, markAsSent bool) (Update, error) {
	if rec.SendingMethod != SendScheduled {
		// Manual templates carry no schedule state at all.
		return clearAll(), nil
	}

	var st Type
	if rec.Type != nil {
		st = *rec.Type
	}

	switch st {
	case TypeFixedDate:
		return reconcileFixedDate(markAsSent), nil
	case TypeRepeating:
		return reconcileRepeating(rec, now)
	default:
		return Update{}, fmt.Errorf("%w: unknown schedule type %q", ErrInvalidSchedule, st)
	}
}

func clearAll() Update {
	return Update{
		Type:         Overwrite[*Type](nil),
		Date:         Overwrite[*time.Time](nil),
		Sent:         Overwrite[*bool](nil),
		Measure:      Overwrite[*int](nil),
		Unit:         Overwrite[*Unit](nil),
		StartDate:    Overwrite[*time.Time](nil),
		EndDate:      Overwrite[*time.Time](nil),
		NextSendDate: Overwrite[*time.Time](nil),
	}
}

// reconcileFixedDate clears the repeating-only fields and, after a successful
// delivery, marks the template as sent. The fire date itself is user-owned and
// stays untouched.
func reconcileFixedDate(markAsSent bool) Update {
	upd := Update{
		Measure:      Overwrite[*int](nil),
		Unit:         Overwrite[*Unit](nil),
		StartDate:    Overwrite[*time.Time](nil),
		EndDate:      Overwrite[*time.Time](nil),
		NextSendDate: Overwrite[*time.Time](nil),
	}
	if markAsSent {
		sent := true
		upd.Sent = Overwrite(&sent)
	}
	return upd
}

// reconcileRepeating clears the fixed-date-only fields, then maintains the
// cached next fire time: absent outside the [start, end] window, otherwise the
// soonest of the stored value and a freshly computed candidate, and always
// strictly in the future.
func reconcileRepeating(rec Record, now time.Time) (Update, error) {
	upd := Update{
		Date: Overwrite[*time.Time](nil),
		Sent: Overwrite[*bool](nil),
	}

	// Window not yet open.
	if rec.StartDate != nil && rec.StartDate.After(now) {
		upd.NextSendDate = Overwrite[*time.Time](nil)
		return upd, nil
	}
	// Window already closed.
	if rec.EndDate != nil && rec.EndDate.Before(now) {
		upd.NextSendDate = Overwrite[*time.Time](nil)
		return upd, nil
	}

	var measure int
	if rec.Measure != nil {
		measure = *rec.Measure
	}
	var unit Unit
	if rec.Unit != nil {
		unit = *rec.Unit
	}

	candidate, err := Next(rec.StartDate, measure, unit, now)
	if err != nil {
		return Update{}, err
	}

	// Keep the stored next fire time only when it is still in the future and
	// no later than the fresh candidate; anything stale or later is replaced.
	existing := rec.NextSendDate
	if existing == nil || !existing.After(now) || existing.After(candidate) {
		upd.NextSendDate = Overwrite(&candidate)
	}
	return upd, nil
}
