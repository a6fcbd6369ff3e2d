package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-dispatch/internal/schedule"
)

func ptr[T any](v T) *T { return &v }

var templateCols = []string{
	"id", "name", "subject", "body", "sending_method", "schedule_type",
	"schedule_date", "schedule_sent", "schedule_measure", "schedule_unit",
	"schedule_start_date", "schedule_end_date", "schedule_next_send_date",
	"created_at", "updated_at",
}

func TestTemplateRepo_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	next := now.Add(time.Hour)
	mock.ExpectQuery(`SELECT id, name, subject, body, sending_method, schedule_type`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow(7, "weekly digest", "Your digest", "...", "scheduled", "repeating",
				nil, nil, 1, "week", now.AddDate(0, -1, 0), nil, next, now, now))

	r := NewTemplateRepo(db)
	tpl, err := r.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if tpl == nil {
		t.Fatal("expected a template")
	}
	if tpl.Name != "weekly digest" || tpl.Schedule.SendingMethod != schedule.SendScheduled {
		t.Errorf("unexpected template: %+v", tpl)
	}
	if tpl.Schedule.Type == nil || *tpl.Schedule.Type != schedule.TypeRepeating {
		t.Errorf("unexpected schedule type: %v", tpl.Schedule.Type)
	}
	if tpl.Schedule.Measure == nil || *tpl.Schedule.Measure != 1 {
		t.Errorf("unexpected measure: %v", tpl.Schedule.Measure)
	}
	if tpl.Schedule.Unit == nil || *tpl.Schedule.Unit != schedule.UnitWeek {
		t.Errorf("unexpected unit: %v", tpl.Schedule.Unit)
	}
	if tpl.Schedule.Date != nil || tpl.Schedule.Sent != nil {
		t.Errorf("fixed-date fields should be absent: %+v", tpl.Schedule)
	}
	if tpl.Schedule.NextSendDate == nil || !tpl.Schedule.NextSendDate.Equal(next) {
		t.Errorf("unexpected next send date: %v", tpl.Schedule.NextSendDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTemplateRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(templateCols))

	r := NewTemplateRepo(db)
	tpl, err := r.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if tpl != nil {
		t.Errorf("expected nil for missing template, got %+v", tpl)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTemplateRepo_DueFixedDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id FROM message_templates`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(1).AddRow(8))

	r := NewTemplateRepo(db)
	ids, err := r.DueFixedDate(context.Background(), now)
	if err != nil {
		t.Fatalf("DueFixedDate: %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 8 {
		t.Errorf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTemplateRepo_DueRepeating_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id FROM message_templates`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := NewTemplateRepo(db)
	ids, err := r.DueRepeating(context.Background(), now)
	if err != nil {
		t.Fatalf("DueRepeating: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no due ids, got %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTemplateRepo_ApplyScheduleUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	next := time.Now().Add(48 * time.Hour)
	var upd schedule.Update
	upd.Date = schedule.Overwrite[*time.Time](nil)
	upd.Sent = schedule.Overwrite[*bool](nil)
	upd.NextSendDate = schedule.Overwrite(&next)

	mock.ExpectExec(`UPDATE message_templates SET schedule_date = \$1, schedule_sent = \$2, schedule_next_send_date = \$3, updated_at = now\(\) WHERE id = \$4`).
		WithArgs(nil, nil, next, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewTemplateRepo(db)
	if err := r.ApplyScheduleUpdate(context.Background(), db, 5, upd); err != nil {
		t.Fatalf("ApplyScheduleUpdate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTemplateRepo_ApplyScheduleUpdate_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// No expectations: an empty update must not touch the database.
	r := NewTemplateRepo(db)
	if err := r.ApplyScheduleUpdate(context.Background(), db, 5, schedule.Update{}); err != nil {
		t.Fatalf("ApplyScheduleUpdate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTemplateRepo_UpdateSchedule(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	start := time.Now()
	rec := schedule.Record{
		SendingMethod: schedule.SendScheduled,
		Type:          ptr(schedule.TypeRepeating),
		Measure:       ptr(3),
		Unit:          ptr(schedule.UnitDay),
		StartDate:     &start,
	}

	mock.ExpectExec(`UPDATE message_templates`).
		WithArgs("scheduled", "repeating", nil, 3, "day", start, nil, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewTemplateRepo(db)
	if err := r.UpdateSchedule(context.Background(), 4, rec); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
