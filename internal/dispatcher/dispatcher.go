// Package dispatcher is the driver loop around the schedule engine: it polls
// for due templates, delivers them, and persists the reconciler's field
// updates. Each template is handled in its own transaction under a row lock,
// so concurrent dispatcher instances never double-fire a template.
package dispatcher

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/hci-dispatch/internal/metrics"
	"github.com/crucial707/hci-dispatch/internal/models"
	"github.com/crucial707/hci-dispatch/internal/repo"
	"github.com/crucial707/hci-dispatch/internal/schedule"
	"golang.org/x/time/rate"
)

// Kind labels for metrics and logs.
const (
	kindFixedDate = "fixed_date"
	kindRepeating = "repeating"
)

type Dispatcher struct {
	DB        *sql.DB
	Templates *repo.TemplateRepo
	Log       *repo.DispatchLogRepo
	Sender    Sender
	Limiter   *rate.Limiter
	Logger    *slog.Logger
}

// New wires a Dispatcher. sendRatePerMinute caps outbound sends; zero or
// negative disables the cap.
func New(db *sql.DB, sender Sender, logger *slog.Logger, sendRatePerMinute int) *Dispatcher {
	limit := rate.Inf
	if sendRatePerMinute > 0 {
		limit = rate.Limit(float64(sendRatePerMinute) / 60.0)
	}
	return &Dispatcher{
		DB:        db,
		Templates: repo.NewTemplateRepo(db),
		Log:       repo.NewDispatchLogRepo(db),
		Sender:    sender,
		Limiter:   rate.NewLimiter(limit, 1),
		Logger:    logger,
	}
}

// RunDue performs one poll: query both due lists at now and dispatch each id.
// Errors on individual templates are logged and do not stop the poll.
func (d *Dispatcher) RunDue(ctx context.Context, now time.Time) {
	fixed, err := d.Templates.DueFixedDate(ctx, now)
	if err != nil {
		d.Logger.Error("query due fixed-date templates", "error", err)
	}
	repeating, err := d.Templates.DueRepeating(ctx, now)
	if err != nil {
		d.Logger.Error("query due repeating templates", "error", err)
	}
	metrics.RecordDue(kindFixedDate, len(fixed))
	metrics.RecordDue(kindRepeating, len(repeating))

	for _, id := range fixed {
		if err := d.dispatchOne(ctx, id, now, kindFixedDate); err != nil {
			d.Logger.Error("dispatch failed", "template_id", id, "kind", kindFixedDate, "error", err)
		}
	}
	for _, id := range repeating {
		if err := d.dispatchOne(ctx, id, now, kindRepeating); err != nil {
			d.Logger.Error("dispatch failed", "template_id", id, "kind", kindRepeating, "error", err)
		}
	}
}

// dispatchOne sends one due template and persists the resulting schedule
// changes as a single transaction. The row lock serializes the whole
// read-send-reconcile-persist sequence per template id; the dueness re-check
// under the lock makes a concurrent instance's win visible.
func (d *Dispatcher) dispatchOne(ctx context.Context, id int, now time.Time, kind string) error {
	if err := d.Limiter.Wait(ctx); err != nil {
		return err
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t, err := d.Templates.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("lock template %d: %w", id, err)
	}
	if t == nil {
		// Deleted between the poll and the lock.
		return nil
	}
	if !isDue(&t.Schedule, now) {
		metrics.RecordDispatch(kind, "skipped")
		return nil
	}

	sendErr := d.Sender.Send(ctx, t)

	upd, err := schedule.Reconcile(t.Schedule, now, sendErr == nil)
	if err != nil {
		// Malformed schedule parameters; leave the record untouched.
		return fmt.Errorf("reconcile template %d: %w", id, err)
	}

	if err := d.Templates.ApplyScheduleUpdate(ctx, tx, id, upd); err != nil {
		return fmt.Errorf("apply update for template %d: %w", id, err)
	}

	status := models.DispatchStatusSent
	detail := ""
	if sendErr != nil {
		status = models.DispatchStatusFailed
		detail = sendErr.Error()
	}
	if err := d.Log.Record(ctx, tx, id, now, status, detail); err != nil {
		return fmt.Errorf("record dispatch for template %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	metrics.RecordDispatch(kind, status)
	if sendErr != nil {
		d.Logger.Warn("send failed", "template_id", id, "kind", kind, "error", sendErr)
	} else {
		d.Logger.Info("dispatched", "template_id", id, "kind", kind)
	}
	return nil
}

// isDue re-derives dueness from the locked record. A concurrent dispatcher may
// have already fired and reconciled the template after the poll selected it.
func isDue(rec *schedule.Record, now time.Time) bool {
	if rec.SendingMethod != schedule.SendScheduled || rec.Type == nil {
		return false
	}
	switch *rec.Type {
	case schedule.TypeFixedDate:
		if rec.Sent != nil && *rec.Sent {
			return false
		}
		return rec.Date != nil && !rec.Date.After(now)
	case schedule.TypeRepeating:
		return rec.NextSendDate != nil && !rec.NextSendDate.After(now)
	}
	return false
}

// Sweep reconciles every scheduled template without sending, re-establishing
// the schedule invariants after user edits and closing windows. Runs on the
// housekeeping cron.
func (d *Dispatcher) Sweep(ctx context.Context, now time.Time) {
	metrics.SweepTotal.Inc()

	ids, err := d.Templates.ListScheduledIDs(ctx)
	if err != nil {
		d.Logger.Error("list scheduled templates", "error", err)
		return
	}

	for _, id := range ids {
		changed, err := d.sweepOne(ctx, id, now)
		if err != nil {
			d.Logger.Error("sweep failed", "template_id", id, "error", err)
			continue
		}
		if changed {
			metrics.SweepUpdates.Inc()
		}
	}
}

func (d *Dispatcher) sweepOne(ctx context.Context, id int, now time.Time) (bool, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t, err := d.Templates.GetForUpdate(ctx, tx, id)
	if err != nil {
		return false, fmt.Errorf("lock template %d: %w", id, err)
	}
	if t == nil {
		return false, nil
	}

	upd, err := schedule.Reconcile(t.Schedule, now, false)
	if err != nil {
		return false, fmt.Errorf("reconcile template %d: %w", id, err)
	}

	// Skip the write entirely when nothing would change against the stored
	// record; clears of already-absent fields are no-ops.
	normalized := t.Schedule
	upd.Apply(&normalized)
	if schedulesEqual(t.Schedule, normalized) {
		return false, nil
	}

	if err := d.Templates.ApplyScheduleUpdate(ctx, tx, id, upd); err != nil {
		return false, fmt.Errorf("apply update for template %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func schedulesEqual(a, b schedule.Record) bool {
	return a.SendingMethod == b.SendingMethod &&
		eqPtr(a.Type, b.Type) &&
		eqTime(a.Date, b.Date) &&
		eqPtr(a.Sent, b.Sent) &&
		eqPtr(a.Measure, b.Measure) &&
		eqPtr(a.Unit, b.Unit) &&
		eqTime(a.StartDate, b.StartDate) &&
		eqTime(a.EndDate, b.EndDate) &&
		eqTime(a.NextSendDate, b.NextSendDate)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
