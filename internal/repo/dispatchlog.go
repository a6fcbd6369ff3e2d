package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/crucial707/hci-dispatch/internal/models"
)

// DispatchLogRepo persists one row per dispatch attempt.
type DispatchLogRepo struct {
	db *sql.DB
}

// NewDispatchLogRepo returns a new DispatchLogRepo.
func NewDispatchLogRepo(db *sql.DB) *DispatchLogRepo {
	return &DispatchLogRepo{db: db}
}

// Record writes a dispatch attempt. status is sent|failed; detail carries the
// send error text when status is failed. q may be the pool or the dispatcher's
// transaction so the log row commits atomically with the schedule update.
func (r *DispatchLogRepo) Record(ctx context.Context, q DBTX, templateID int, firedAt time.Time, status, detail string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO dispatch_log (template_id, fired_at, status, detail) VALUES ($1, $2, $3, $4)`,
		templateID, firedAt, status, detail,
	)
	return err
}

// List returns recent dispatch entries, newest first.
func (r *DispatchLogRepo) List(ctx context.Context, limit, offset int) ([]models.DispatchEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, template_id, fired_at, status, COALESCE(detail,''), created_at
		 FROM dispatch_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DispatchEntry
	for rows.Next() {
		var e models.DispatchEntry
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.FiredAt, &e.Status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListForTemplate returns recent dispatch entries for one template, newest first.
func (r *DispatchLogRepo) ListForTemplate(ctx context.Context, templateID, limit int) ([]models.DispatchEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, template_id, fired_at, status, COALESCE(detail,''), created_at
		 FROM dispatch_log WHERE template_id = $1 ORDER BY created_at DESC LIMIT $2`,
		templateID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DispatchEntry
	for rows.Next() {
		var e models.DispatchEntry
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.FiredAt, &e.Status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
