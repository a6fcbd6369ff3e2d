package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/hci-dispatch/internal/repo"
)

// DueHandler exposes read-only previews of the dispatcher's due queries.
type DueHandler struct {
	Repo *repo.TemplateRepo
}

// dueAt parses the optional "at" query parameter (RFC 3339), defaulting to the
// server clock.
func dueAt(r *http.Request) (time.Time, bool) {
	if v := r.URL.Query().Get("at"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return at, true
	}
	return time.Now(), true
}

// DueFixedDate lists ids of fixed-date templates due at the given instant,
// ordered by fire time.
func (h *DueHandler) DueFixedDate(w http.ResponseWriter, r *http.Request) {
	at, ok := dueAt(r)
	if !ok {
		JSONError(w, "invalid at parameter, want RFC 3339", http.StatusBadRequest)
		return
	}

	ids, err := h.Repo.DueFixedDate(r.Context(), at)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []int{}
	}
	JSON(w, map[string]interface{}{"at": at, "ids": ids}, http.StatusOK)
}

// DueRepeating lists ids of repeating templates due at the given instant,
// ordered by next fire time.
func (h *DueHandler) DueRepeating(w http.ResponseWriter, r *http.Request) {
	at, ok := dueAt(r)
	if !ok {
		JSONError(w, "invalid at parameter, want RFC 3339", http.StatusBadRequest)
		return
	}

	ids, err := h.Repo.DueRepeating(r.Context(), at)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []int{}
	}
	JSON(w, map[string]interface{}{"at": at, "ids": ids}, http.StatusOK)
}
