package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"clipforge/failures"
	"clipforge/logger"
	"clipforge/task"
)

// RunTask executes a task payload synchronously: resolve inputs, run the
// native transform, upload the output. The response carries the destination
// so callers can observe completion without a job record.
func (h *Handler) RunTask(w http.ResponseWriter, r *http.Request) {
	var payload task.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Error: "malformed task payload: " + err.Error()})
		return
	}

	result, err := h.executor.Execute(r.Context(), payload)
	if err != nil {
		logger.Errorf("task %s failed: %v", payload.Task, err)
		recordFailure(result.ID, string(payload.Task), err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func recordFailure(id, taskType string, err error) {
	if id == "" {
		id = fmt.Sprintf("task-%d", time.Now().UnixNano())
	}
	if storeErr := failures.Store(id, taskType, err); storeErr != nil {
		logger.Errorf("failed to record failure for %s: %v", id, storeErr)
	}
	sentry.CaptureException(err)
}
