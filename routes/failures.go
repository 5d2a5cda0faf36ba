package routes

import (
	"net/http"
	"strconv"

	"clipforge/failures"
	"clipforge/logger"
)

// FailureQuery returns the recorded failure for a task id, or a clean bill
// when no failure was recorded.
func (h *Handler) FailureQuery(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Error: "id parameter required"})
		return
	}

	record, err := failures.Get(id)
	if err != nil {
		logger.Errorf("failed to query failure %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, APIError{Error: "internal server error"})
		return
	}

	if record == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":     id,
			"status": "no_failure_recorded",
		})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// FailureList returns recent failure records.
func (h *Handler) FailureList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, APIError{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	records, err := failures.List(limit)
	if err != nil {
		logger.Errorf("failed to list failures: %v", err)
		writeJSON(w, http.StatusInternalServerError, APIError{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"failures": records,
		"count":    len(records),
	})
}
