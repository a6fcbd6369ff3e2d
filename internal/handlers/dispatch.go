package handlers

import (
	"net/http"
	"strconv"

	"github.com/crucial707/hci-dispatch/internal/repo"
)

// DispatchHandler serves dispatch log endpoints.
type DispatchHandler struct {
	Repo *repo.DispatchLogRepo
}

// ListDispatches returns recent dispatch attempts. Query: limit (default 50),
// offset (default 0), template_id (optional filter).
func (h *DispatchHandler) ListDispatches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	if t := r.URL.Query().Get("template_id"); t != "" {
		templateID, err := strconv.Atoi(t)
		if err != nil || templateID <= 0 {
			JSONError(w, "invalid template_id", http.StatusBadRequest)
			return
		}
		entries, err := h.Repo.ListForTemplate(r.Context(), templateID, limit)
		if err != nil {
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		JSON(w, entries, http.StatusOK)
		return
	}

	entries, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, entries, http.StatusOK)
}
