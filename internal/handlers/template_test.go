package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-dispatch/internal/repo"
	"github.com/go-chi/chi/v5"
)

func TestTemplateHandler_ListTemplates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(50, 0).
		WillReturnRows(templateRow(1, "manual", nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM message_templates`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	h := &TemplateHandler{Repo: repo.NewTemplateRepo(db)}
	req := httptest.NewRequest("GET", "/v1/templates", nil)
	rr := httptest.NewRecorder()
	h.ListTemplates(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out struct {
		Items []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Name != "digest" || out.Total != 1 {
		t.Errorf("unexpected response: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTemplateHandler_CreateTemplate_Validation(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &TemplateHandler{Repo: repo.NewTemplateRepo(db)}
	body, _ := json.Marshal(map[string]string{"subject": "no name"})
	req := httptest.NewRequest("POST", "/v1/templates", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateTemplate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestTemplateHandler_GetTemplate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, subject, body`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(templateCols))

	h := &TemplateHandler{Repo: repo.NewTemplateRepo(db)}
	r := chi.NewRouter()
	r.Get("/v1/templates/{id}", h.GetTemplate)

	req := httptest.NewRequest("GET", "/v1/templates/42", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
