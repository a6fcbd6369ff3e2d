package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-dispatch/internal/repo"
)

func TestDueHandler_DueRepeating_At(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id FROM message_templates`).
		WithArgs(at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5).AddRow(2))

	h := &DueHandler{Repo: repo.NewTemplateRepo(db)}
	req := httptest.NewRequest("GET", "/v1/due/repeating?at=2024-06-10T12:00:00Z", nil)
	rr := httptest.NewRecorder()
	h.DueRepeating(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out struct {
		IDs []int `json:"ids"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.IDs) != 2 || out.IDs[0] != 5 || out.IDs[1] != 2 {
		t.Errorf("unexpected ids: %v", out.IDs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDueHandler_DueFixedDate_BadAt(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &DueHandler{Repo: repo.NewTemplateRepo(db)}
	req := httptest.NewRequest("GET", "/v1/due/fixed?at=tomorrow", nil)
	rr := httptest.NewRecorder()
	h.DueFixedDate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestDueHandler_DueFixedDate_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM message_templates`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := &DueHandler{Repo: repo.NewTemplateRepo(db)}
	req := httptest.NewRequest("GET", "/v1/due/fixed", nil)
	rr := httptest.NewRecorder()
	h.DueFixedDate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out struct {
		IDs []int `json:"ids"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.IDs == nil || len(out.IDs) != 0 {
		t.Errorf("expected empty (non-null) id list, got %v", out.IDs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
