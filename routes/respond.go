package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"clipforge/fault"
	"clipforge/logger"
)

// APIError is the JSON error body: the taxonomy kind plus a human-readable
// message.
type APIError struct {
	Error string     `json:"error"`
	Kind  fault.Kind `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	writeJSON(w, statusFor(kind), APIError{Error: err.Error(), Kind: kind})
}

func statusFor(kind fault.Kind) int {
	switch kind {
	case fault.InvalidParameters, fault.UnresolvableURI:
		return http.StatusBadRequest
	case fault.NoPresignMethod:
		return http.StatusConflict
	case fault.TransferFailed, fault.StagingFailed:
		return http.StatusBadGateway
	case fault.TransformFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// requireAPIKey gates inbound requests with the shared key. An empty
// configured key disables the check.
func requireAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header || token != apiKey {
				writeJSON(w, http.StatusUnauthorized, APIError{Error: "invalid or missing API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
