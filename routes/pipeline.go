package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"clipforge/fault"
	"clipforge/logger"
	"clipforge/pipeline"
)

// SegmentJob fans a job out into per-segment trim sub-jobs on the remote
// worker pool. A partial fan-out still reports the dispatched count so the
// caller can re-request only the missing indices.
func (h *Handler) SegmentJob(w http.ResponseWriter, r *http.Request) {
	var req pipeline.SegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Error: "malformed segment request: " + err.Error()})
		return
	}

	resp, err := h.segments.Segment(r.Context(), req)
	if err != nil {
		logger.Errorf("segmentation failed for %s: %v", req.JobID, err)
		kind := fault.KindOf(err)
		writeJSON(w, statusFor(kind), struct {
			APIError
			Dispatched int `json:"dispatched"`
		}{APIError{Error: err.Error(), Kind: kind}, resp.Dispatched})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// PipelineStatus reports per-index availability of a job's segment outputs.
func (h *Handler) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	expected := 0
	if v := r.URL.Query().Get("expected"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, APIError{Error: "expected must be an integer"})
			return
		}
		expected = n
	}

	report, err := h.prober.Status(r.Context(), jobID, expected)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
