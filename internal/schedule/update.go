package schedule

import "time"

// Field is one slot of an Update. The zero value means "leave the stored value
// alone"; a set field overwrites it, possibly with nil to clear. Keeping the
// two cases in the type makes an omitted field impossible to confuse with an
// explicit clear.
type Field[T any] struct {
	value T
	set   bool
}

// Overwrite returns a Field that replaces the stored value with v.
func Overwrite[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// IsSet reports whether the field carries an overwrite.
func (f Field[T]) IsSet() bool { return f.set }

// Value returns the overwrite value. Only meaningful when IsSet is true.
func (f Field[T]) Value() T { return f.value }

// Update is the sparse result of a reconciliation pass: only fields that must
// change are set. The caller persists it as a single all-or-nothing write.
type Update struct {
	Type         Field[*Type]
	Date         Field[*time.Time]
	Sent         Field[*bool]
	Measure      Field[*int]
	Unit         Field[*Unit]
	StartDate    Field[*time.Time]
	EndDate      Field[*time.Time]
	NextSendDate Field[*time.Time]
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return !u.Type.IsSet() && !u.Date.IsSet() && !u.Sent.IsSet() &&
		!u.Measure.IsSet() && !u.Unit.IsSet() && !u.StartDate.IsSet() &&
		!u.EndDate.IsSet() && !u.NextSendDate.IsSet()
}

// Apply writes the set fields of u into rec. Used by tests and by callers that
// hold the full record in memory; the repo applies updates directly in SQL.
func (u Update) Apply(rec *Record) {
	if u.Type.IsSet() {
		rec.Type = u.Type.Value()
	}
	if u.Date.IsSet() {
		rec.Date = u.Date.Value()
	}
	if u.Sent.IsSet() {
		rec.Sent = u.Sent.Value()
	}
	if u.Measure.IsSet() {
		rec.Measure = u.Measure.Value()
	}
	if u.Unit.IsSet() {
		rec.Unit = u.Unit.Value()
	}
	if u.StartDate.IsSet() {
		rec.StartDate = u.StartDate.Value()
	}
	if u.EndDate.IsSet() {
		rec.EndDate = u.EndDate.Value()
	}
	if u.NextSendDate.IsSet() {
		rec.NextSendDate = u.NextSendDate.Value()
	}
}
