package http

import (
	"net/http"

	jsonx "soullab/internal/shared/json"
	"soullab/internal/shared/logging"
)

type apiErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSONError(logger logging.Logger, w http.ResponseWriter, status int, message string, err error) {
	logger = logging.OrNop(logger)
	if status >= http.StatusInternalServerError {
		logger.Error("HTTP %d - %s: %v", status, message, err)
	} else {
		logger.Warn("HTTP %d - %s: %v", status, message, err)
	}

	resp := apiErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(logger, w, status, resp)
}

func writeJSON(logger logging.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := jsonx.NewEncoder(w).Encode(payload); err != nil {
		logging.OrNop(logger).Error("Failed to encode JSON response: %v", err)
	}
}
