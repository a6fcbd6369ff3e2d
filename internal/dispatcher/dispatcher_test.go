package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-dispatch/internal/models"
	"github.com/crucial707/hci-dispatch/internal/schedule"
)

var templateCols = []string{
	"id", "name", "subject", "body", "sending_method", "schedule_type",
	"schedule_date", "schedule_sent", "schedule_measure", "schedule_unit",
	"schedule_start_date", "schedule_end_date", "schedule_next_send_date",
	"created_at", "updated_at",
}

type fakeSender struct {
	err   error
	calls int
}

func (s *fakeSender) Send(_ context.Context, _ *models.Template) error {
	s.calls++
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchOne_RepeatingSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	overdue := now.Add(-time.Hour)
	next := now.AddDate(0, 0, 1)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow(7, "daily digest", "Digest", "...", "scheduled", "repeating",
				nil, nil, 1, "day", nil, nil, overdue, now, now))
	mock.ExpectExec(`UPDATE message_templates SET schedule_date = \$1, schedule_sent = \$2, schedule_next_send_date = \$3`).
		WithArgs(nil, nil, next, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO dispatch_log`).
		WithArgs(7, now, models.DispatchStatusSent, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sender := &fakeSender{}
	d := New(db, sender, discardLogger(), 0)

	if err := d.dispatchOne(context.Background(), 7, now, kindRepeating); err != nil {
		t.Fatalf("dispatchOne: %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("expected exactly one send, got %d", sender.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDispatchOne_FixedDateSendFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	fire := now.Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow(3, "launch note", "Launch", "...", "scheduled", "fixed_date",
				fire, false, nil, nil, nil, nil, nil, now, now))
	// markAsSent=false: only the repeating-only fields are cleared, so the
	// template stays due and is retried on the next poll.
	mock.ExpectExec(`UPDATE message_templates SET schedule_measure = \$1, schedule_unit = \$2, schedule_start_date = \$3, schedule_end_date = \$4, schedule_next_send_date = \$5`).
		WithArgs(nil, nil, nil, nil, nil, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO dispatch_log`).
		WithArgs(3, now, models.DispatchStatusFailed, "relay down").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sender := &fakeSender{err: errors.New("relay down")}
	d := New(db, sender, discardLogger(), 0)

	if err := d.dispatchOne(context.Background(), 3, now, kindFixedDate); err != nil {
		t.Fatalf("dispatchOne: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDispatchOne_NotDueUnderLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	// Another instance already fired this template: sent flag set under lock.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow(3, "launch note", "Launch", "...", "scheduled", "fixed_date",
				now.Add(-time.Minute), true, nil, nil, nil, nil, nil, now, now))
	mock.ExpectRollback()

	sender := &fakeSender{}
	d := New(db, sender, discardLogger(), 0)

	if err := d.dispatchOne(context.Background(), 3, now, kindFixedDate); err != nil {
		t.Fatalf("dispatchOne: %v", err)
	}
	if sender.calls != 0 {
		t.Errorf("no send expected, got %d", sender.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDispatchOne_DeletedTemplate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(templateCols))
	mock.ExpectRollback()

	d := New(db, &fakeSender{}, discardLogger(), 0)
	if err := d.dispatchOne(context.Background(), 9, now, kindRepeating); err != nil {
		t.Fatalf("dispatchOne: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_ClosesWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	ended := now.AddDate(0, 0, -7)
	stale := now.Add(-time.Hour)

	mock.ExpectQuery(`SELECT id FROM message_templates WHERE sending_method = 'scheduled'`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow(5, "promo", "Promo", "...", "scheduled", "repeating",
				nil, nil, 1, "day", now.AddDate(0, -1, 0), ended, stale, now, now))
	// Window closed: the cached next fire time is cleared.
	mock.ExpectExec(`UPDATE message_templates SET schedule_date = \$1, schedule_sent = \$2, schedule_next_send_date = \$3`).
		WithArgs(nil, nil, nil, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := New(db, &fakeSender{}, discardLogger(), 0)
	d.Sweep(context.Background(), now)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_NoChangeSkipsWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	next := now.Add(30 * time.Minute) // sooner than the fresh candidate now+1d

	mock.ExpectQuery(`SELECT id FROM message_templates WHERE sending_method = 'scheduled'`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(6).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow(6, "digest", "Digest", "...", "scheduled", "repeating",
				nil, nil, 1, "day", nil, nil, next, now, now))
	mock.ExpectRollback()

	d := New(db, &fakeSender{}, discardLogger(), 0)
	d.Sweep(context.Background(), now)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	fixed := schedule.TypeFixedDate
	repeating := schedule.TypeRepeating
	sent := true

	tests := []struct {
		name string
		rec  schedule.Record
		want bool
	}{
		{"manual", schedule.Record{SendingMethod: schedule.SendManual}, false},
		{"fixed due", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &fixed, Date: &past}, true},
		{"fixed at now", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &fixed, Date: &now}, true},
		{"fixed future", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &fixed, Date: &future}, false},
		{"fixed already sent", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &fixed, Date: &past, Sent: &sent}, false},
		{"fixed no date", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &fixed}, false},
		{"repeating due", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &repeating, NextSendDate: &past}, true},
		{"repeating future", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &repeating, NextSendDate: &future}, false},
		{"repeating no next", schedule.Record{SendingMethod: schedule.SendScheduled, Type: &repeating}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDue(&tt.rec, now); got != tt.want {
				t.Errorf("isDue = %v, want %v", got, tt.want)
			}
		})
	}
}
