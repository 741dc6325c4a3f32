package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/reelverse/upload-service/pkg/upload/models"
)

const timeFormat = time.RFC3339

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is
// written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}

// MapStoreError maps a session-engine sentinel error to an HTTP status code
// and message, centralizing the error-to-status translation used by every
// handler.
func MapStoreError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound, "upload session not found"
	case errors.Is(err, models.ErrDraftNotFound):
		return http.StatusNotFound, "content draft not found"

	case errors.Is(err, models.ErrSessionNotOwned):
		return http.StatusForbidden, "upload session not owned by caller"

	case errors.Is(err, models.ErrSessionNotUploading):
		return http.StatusConflict, "upload session is not accepting chunks"
	case errors.Is(err, models.ErrDuplicateIdempotency):
		return http.StatusConflict, "idempotency key already bound to a different session"

	case errors.Is(err, models.ErrFileTooLarge):
		return http.StatusBadRequest, "requested upload size exceeds the configured maximum"
	case errors.Is(err, models.ErrUnsupportedType):
		return http.StatusBadRequest, "mime type is not on the allow-list"
	case errors.Is(err, models.ErrUnsupportedUploadType):
		return http.StatusBadRequest, `uploadType must be "resumable"`
	case errors.Is(err, models.ErrInvalidContentRange):
		return http.StatusBadRequest, "malformed Content-Range header"
	case errors.Is(err, models.ErrMissingContentLength):
		return http.StatusBadRequest, "missing or non-numeric Content-Length header"

	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// HandleStoreError maps a store error to an HTTP response and writes it.
func HandleStoreError(w http.ResponseWriter, err error) {
	status, msg := MapStoreError(err)
	WriteProblem(w, status, http.StatusText(status), msg)
}
