package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("http_response_write_failed", slog.String("error", err.Error()))
	}
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}

	switch simerrors.GetCode(err) {
	case simerrors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case simerrors.ErrCodeModelUnavailable, simerrors.ErrCodeEmbeddingFailed, simerrors.ErrCodeNetworkTimeout:
		return http.StatusServiceUnavailable
	}

	switch simerrors.GetCategory(err) {
	case simerrors.CategoryValidation, simerrors.CategoryIO:
		// Validation is bad input; IO errors come from uploaded files
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as an ErrorResponse. Internal errors are logged with
// their cause and shown to the client without it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	reqID := RequestIDFromContext(r.Context())

	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      simerrors.GetCode(err),
		RequestID: reqID,
	}
	var se *simerrors.SimError
	if errors.As(err, &se) {
		resp.Error = se.Message
		resp.Suggestion = se.Suggestion
	}

	if status == http.StatusRequestEntityTooLarge && resp.Code == "" {
		resp.Code = simerrors.ErrCodeFileTooLarge
		resp.Error = "request body too large"
	}
	if status >= http.StatusInternalServerError {
		attrs := append([]any{slog.String("request_id", reqID), slog.Int("status", status)},
			simerrors.FormatForLog(err)...)
		slog.Error("http_request_failed", attrs...)
		if status == http.StatusInternalServerError {
			resp.Error = "internal server error"
			if resp.Code == "" {
				resp.Code = simerrors.ErrCodeInternal
			}
		}
	}

	writeJSON(w, status, resp)
}
