package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mwantia/agrilink/internal/ingest"
	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/secure"
	"github.com/mwantia/agrilink/pkg/tabular"
)

const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeEmptyFile       = "EMPTY_FILE"
	CodeParseError      = "PARSE_ERROR"
	CodeMissingColumns  = "MISSING_COLUMNS"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeDecryptionError = "DECRYPTION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes {"error": {"code": ..., "message": ...}} with status.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func validationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// writeServiceError maps errors returned by the ingest service to responses.
// Anything unrecognized is logged and reported as an internal error.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing    *ingest.MissingColumnsError
		malformed  *tabular.MalformedFileError
		validation *ingest.ValidationError
		decryption *secure.DecryptionError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &missing):
		WriteError(w, http.StatusBadRequest, CodeMissingColumns, missing.Error())
	case errors.Is(err, tabular.ErrEmptyFile):
		WriteError(w, http.StatusBadRequest, CodeEmptyFile, "the uploaded file contains no data rows")
	case errors.As(err, &malformed):
		WriteError(w, http.StatusBadRequest, CodeParseError, malformed.Error())
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		WriteError(w, http.StatusBadRequest, CodeUnsupportedType, err.Error())
	case errors.As(err, &validation):
		validationError(w, validation.Message)
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "resource not found")
	case errors.As(err, &tooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, err.Error())
	case errors.As(err, &decryption):
		h.log.Error("Decryption failed on %s %s: %v", r.Method, r.URL.Path, err)
		WriteError(w, http.StatusInternalServerError, CodeDecryptionError, "stored data could not be decrypted")
	default:
		h.log.Error("Request %s %s failed: %v", r.Method, r.URL.Path, err)
		WriteError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}
