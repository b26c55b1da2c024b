package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tally/internal/assistant"
	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

var errAssistantDisabled = errors.New("assistant is not configured")

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, RequestID: trace.RequestID(r.Context())})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidationError(err), errors.Is(err, services.ErrInvalidTheme):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, assistant.ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusNotFound
	case errors.Is(err, errAssistantDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server-side failures are logged and
// their details withheld from the client.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 && status != http.StatusServiceUnavailable {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldOperation, op, applog.FieldError, err)
		msg = "internal error"
	}
	writeError(w, r, status, msg)
}
