package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-dispatch/internal/models"
)

func TestDispatchLogRepo_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	fired := time.Now()
	mock.ExpectExec(`INSERT INTO dispatch_log`).
		WithArgs(12, fired, models.DispatchStatusFailed, "relay refused connection").
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := NewDispatchLogRepo(db)
	err = r.Record(context.Background(), db, 12, fired, models.DispatchStatusFailed, "relay refused connection")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDispatchLogRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, template_id, fired_at, status`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "fired_at", "status", "detail", "created_at"}).
			AddRow(2, 12, now, "sent", "", now).
			AddRow(1, 9, now.Add(-time.Hour), "failed", "timeout", now.Add(-time.Hour)))

	r := NewDispatchLogRepo(db)
	entries, err := r.List(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].TemplateID != 12 || entries[0].Status != models.DispatchStatusSent {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Detail != "timeout" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
