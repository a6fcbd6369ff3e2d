package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/hci-dispatch/internal/repo"
	"github.com/crucial707/hci-dispatch/internal/schedule"
	"github.com/go-chi/chi/v5"
)

// ScheduleHandler handles schedule configuration edits. After persisting an
// edit it runs one reconciliation pass so the stored record is immediately
// consistent (repeating templates get their next fire time, stale fields are
// cleared) instead of waiting for the dispatcher's next sweep.
type ScheduleHandler struct {
	Repo *repo.TemplateRepo

	// Now is the clock used for the post-edit reconciliation; defaults to
	// time.Now. Tests override it.
	Now func() time.Time
}

func (h *ScheduleHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type scheduleInput struct {
	SendingMethod string     `json:"sending_method"`
	ScheduleType  string     `json:"schedule_type"`
	Date          *time.Time `json:"schedule_date"`
	Measure       *int       `json:"schedule_measure"`
	Unit          string     `json:"schedule_unit"`
	StartDate     *time.Time `json:"schedule_start_date"`
	EndDate       *time.Time `json:"schedule_end_date"`
}

// validate checks the edit and converts it into a schedule.Record. The core
// assumes validated input, so everything user-facing is rejected here.
func (in scheduleInput) validate() (schedule.Record, map[string]string) {
	fields := make(map[string]string)
	rec := schedule.Record{}

	switch schedule.SendingMethod(in.SendingMethod) {
	case schedule.SendManual:
		rec.SendingMethod = schedule.SendManual
		return rec, nil // remaining fields are cleared by reconciliation
	case schedule.SendScheduled:
		rec.SendingMethod = schedule.SendScheduled
	default:
		fields["sending_method"] = "must be manual or scheduled"
		return rec, fields
	}

	switch schedule.Type(in.ScheduleType) {
	case schedule.TypeFixedDate:
		st := schedule.TypeFixedDate
		rec.Type = &st
		if in.Date == nil {
			fields["schedule_date"] = "required for fixed_date"
		}
		rec.Date = in.Date
	case schedule.TypeRepeating:
		st := schedule.TypeRepeating
		rec.Type = &st
		if in.Measure == nil || *in.Measure <= 0 {
			fields["schedule_measure"] = "must be a positive integer"
		}
		rec.Measure = in.Measure
		unit := schedule.Unit(in.Unit)
		if !unit.Valid() {
			fields["schedule_unit"] = "must be minute, hour, day, week, month, or year"
		} else {
			rec.Unit = &unit
		}
		if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
			fields["schedule_end_date"] = "must not be before schedule_start_date"
		}
		rec.StartDate = in.StartDate
		rec.EndDate = in.EndDate
	default:
		fields["schedule_type"] = "must be fixed_date or repeating"
	}

	if len(fields) > 0 {
		return rec, fields
	}
	return rec, nil
}

// UpdateSchedule replaces a template's schedule configuration.
// Body: {"sending_method": "scheduled", "schedule_type": "repeating", "schedule_measure": 1, ...}.
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid template id", http.StatusBadRequest)
		return
	}

	var input scheduleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	rec, fields := input.validate()
	if fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	existing, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if existing == nil {
		JSONError(w, "template not found", http.StatusNotFound)
		return
	}

	if err := h.Repo.UpdateSchedule(r.Context(), id, rec); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	// Normalize the freshly saved record.
	upd, err := schedule.Reconcile(rec, h.now(), false)
	if err != nil {
		// Validation above should make this unreachable.
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if err := h.Repo.ApplyScheduleUpdate(r.Context(), h.Repo.DB, id, upd); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	t, err := h.Repo.GetByID(r.Context(), id)
	if err != nil || t == nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, t, http.StatusOK)
}

// GetSchedule returns just the schedule state of one template.
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid template id", http.StatusBadRequest)
		return
	}

	t, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		JSONError(w, "template not found", http.StatusNotFound)
		return
	}

	JSON(w, t.Schedule, http.StatusOK)
}
