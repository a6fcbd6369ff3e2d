// Package schedule decides when a message template should next fire and which
// persisted schedule fields must change to reflect that decision. It never reads
// the wall clock and never touches the database: the caller supplies "now" and
// applies the returned field updates.
package schedule

import (
	"errors"
	"time"
)

// ErrInvalidSchedule reports a malformed recurrence (non-positive measure or
// unknown unit). No update is produced when it is returned.
var ErrInvalidSchedule = errors.New("invalid schedule interval")

// SendingMethod says whether scheduling applies to a template at all.
type SendingMethod string

const (
	SendManual    SendingMethod = "manual"
	SendScheduled SendingMethod = "scheduled"
)

// Type distinguishes a one-off fixed-date send from a recurring send.
type Type string

const (
	TypeFixedDate Type = "fixed_date"
	TypeRepeating Type = "repeating"
)

// Unit is the granularity of a recurrence interval.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

// Valid reports whether u is one of the recognized units.
func (u Unit) Valid() bool {
	switch u {
	case UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// Record holds the schedule state of one template. Optional fields are nil when
// absent; nil is a real sentinel, never an epoch-zero timestamp.
type Record struct {
	SendingMethod SendingMethod `json:"sending_method"`
	Type          *Type         `json:"schedule_type,omitempty"`

	// Fixed-date fields.
	Date *time.Time `json:"schedule_date,omitempty"`
	Sent *bool      `json:"schedule_sent,omitempty"`

	// Repeating fields.
	Measure      *int       `json:"schedule_measure,omitempty"`
	Unit         *Unit      `json:"schedule_unit,omitempty"`
	StartDate    *time.Time `json:"schedule_start_date,omitempty"`
	EndDate      *time.Time `json:"schedule_end_date,omitempty"`
	NextSendDate *time.Time `json:"schedule_next_send_date,omitempty"`
}
