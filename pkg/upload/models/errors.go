package models

import "errors"

// Sentinel errors returned by the upload session engine. Handlers translate
// these into RFC 7807 problem responses; they are never surfaced as raw
// strings to clients.
var (
	ErrSessionNotFound      = errors.New("upload session not found")
	ErrSessionNotOwned      = errors.New("upload session not owned by caller")
	ErrSessionNotUploading  = errors.New("upload session is not accepting chunks")
	ErrDuplicateIdempotency = errors.New("idempotency key already bound to a different session")
	ErrFileTooLarge         = errors.New("requested upload size exceeds the configured maximum")
	ErrUnsupportedType      = errors.New("mime type is not on the allow-list")
	ErrUnsupportedUploadType = errors.New("uploadType must be \"resumable\"")
	ErrInvalidContentRange  = errors.New("malformed Content-Range header")
	ErrMissingContentLength = errors.New("missing or non-numeric Content-Length header")

	ErrDraftNotFound = errors.New("content draft not found")
)
