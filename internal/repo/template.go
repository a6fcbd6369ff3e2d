package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/hci-dispatch/internal/models"
	"github.com/crucial707/hci-dispatch/internal/schedule"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repo needs, so writes can run
// inside the dispatcher's per-template transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TemplateRepo persists message templates and their schedule state.
type TemplateRepo struct {
	DB *sql.DB
}

// NewTemplateRepo returns a new TemplateRepo.
func NewTemplateRepo(db *sql.DB) *TemplateRepo {
	return &TemplateRepo{DB: db}
}

const templateColumns = `id, name, subject, body, sending_method, schedule_type,
		schedule_date, schedule_sent, schedule_measure, schedule_unit,
		schedule_start_date, schedule_end_date, schedule_next_send_date,
		created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*models.Template, error) {
	t := &models.Template{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Subject, &t.Body,
		&t.Schedule.SendingMethod, &t.Schedule.Type,
		&t.Schedule.Date, &t.Schedule.Sent,
		&t.Schedule.Measure, &t.Schedule.Unit,
		&t.Schedule.StartDate, &t.Schedule.EndDate, &t.Schedule.NextSendDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Count returns the total number of templates.
func (r *TemplateRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM message_templates").Scan(&n)
	return n, err
}

// List returns templates, most recent first. limit/offset for pagination.
func (r *TemplateRepo) List(ctx context.Context, limit, offset int) ([]models.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM message_templates
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

// GetByID returns one template by id, or nil when it does not exist.
func (r *TemplateRepo) GetByID(ctx context.Context, id int) (*models.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM message_templates
		WHERE id = $1
	`
	t, err := scanTemplate(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetForUpdate loads one template inside tx with a row lock, serializing the
// read-reconcile-persist sequence per template id across dispatcher instances.
// Returns nil when the template does not exist.
func (r *TemplateRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int) (*models.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM message_templates
		WHERE id = $1
		FOR UPDATE
	`
	t, err := scanTemplate(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new template. Templates start as manual; scheduling is a
// separate edit.
func (r *TemplateRepo) Create(ctx context.Context, name, subject, body string) (*models.Template, error) {
	query := `
		INSERT INTO message_templates (name, subject, body)
		VALUES ($1, $2, $3)
		RETURNING ` + templateColumns + `
	`
	t, err := scanTemplate(r.DB.QueryRowContext(ctx, query, name, subject, body))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateContent updates name, subject, and body for the given id.
func (r *TemplateRepo) UpdateContent(ctx context.Context, id int, name, subject, body string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE message_templates SET name = $1, subject = $2, body = $3, updated_at = now() WHERE id = $4`,
		name, subject, body, id,
	)
	return err
}

// UpdateSchedule persists a user edit of the schedule configuration. The
// reconciler-owned fields (schedule_sent, schedule_next_send_date) are reset
// here and re-derived by the next reconciliation pass.
func (r *TemplateRepo) UpdateSchedule(ctx context.Context, id int, rec schedule.Record) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE message_templates
		SET sending_method = $1,
		    schedule_type = $2,
		    schedule_date = $3,
		    schedule_sent = FALSE,
		    schedule_measure = $4,
		    schedule_unit = $5,
		    schedule_start_date = $6,
		    schedule_end_date = $7,
		    schedule_next_send_date = NULL,
		    updated_at = now()
		WHERE id = $8`,
		rec.SendingMethod, rec.Type, rec.Date,
		rec.Measure, rec.Unit, rec.StartDate, rec.EndDate, id,
	)
	return err
}

// ApplyScheduleUpdate writes a reconciliation result for the given id as a
// single statement. An empty update is a no-op. q may be the pool or an open
// transaction.
func (r *TemplateRepo) ApplyScheduleUpdate(ctx context.Context, q DBTX, id int, upd schedule.Update) error {
	if upd.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Type.IsSet() {
		set("schedule_type", upd.Type.Value())
	}
	if upd.Date.IsSet() {
		set("schedule_date", upd.Date.Value())
	}
	if upd.Sent.IsSet() {
		set("schedule_sent", upd.Sent.Value())
	}
	if upd.Measure.IsSet() {
		set("schedule_measure", upd.Measure.Value())
	}
	if upd.Unit.IsSet() {
		set("schedule_unit", upd.Unit.Value())
	}
	if upd.StartDate.IsSet() {
		set("schedule_start_date", upd.StartDate.Value())
	}
	if upd.EndDate.IsSet() {
		set("schedule_end_date", upd.EndDate.Value())
	}
	if upd.NextSendDate.IsSet() {
		set("schedule_next_send_date", upd.NextSendDate.Value())
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE message_templates SET %s, updated_at = now() WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	)
	_, err := q.ExecContext(ctx, query, args...)
	return err
}

// DueFixedDate returns ids of scheduled fixed-date templates whose fire time
// has arrived and which have not been sent, ordered by fire time.
func (r *TemplateRepo) DueFixedDate(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		SELECT id FROM message_templates
		WHERE sending_method = 'scheduled'
		  AND schedule_type = 'fixed_date'
		  AND COALESCE(schedule_sent, FALSE) = FALSE
		  AND schedule_date IS NOT NULL
		  AND schedule_date <= $1
		ORDER BY schedule_date, id
	`
	return r.queryIDs(ctx, query, now)
}

// DueRepeating returns ids of scheduled repeating templates whose cached next
// fire time has arrived, ordered by it. Templates outside their active window
// carry no next fire time, so no extra window check is needed here.
func (r *TemplateRepo) DueRepeating(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		SELECT id FROM message_templates
		WHERE sending_method = 'scheduled'
		  AND schedule_type = 'repeating'
		  AND schedule_next_send_date IS NOT NULL
		  AND schedule_next_send_date <= $1
		ORDER BY schedule_next_send_date, id
	`
	return r.queryIDs(ctx, query, now)
}

// ListScheduledIDs returns the ids of all templates with scheduling enabled,
// for the housekeeping sweep.
func (r *TemplateRepo) ListScheduledIDs(ctx context.Context) ([]int, error) {
	query := `SELECT id FROM message_templates WHERE sending_method = 'scheduled' ORDER BY id`
	return r.queryIDs(ctx, query)
}

func (r *TemplateRepo) queryIDs(ctx context.Context, query string, args ...any) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a template by id.
func (r *TemplateRepo) Delete(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM message_templates WHERE id = $1`, id)
	return err
}
