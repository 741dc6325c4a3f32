package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// These keys are used consistently across the session engine, object store,
// reaper, job dispatcher, and HTTP layer so logs can be aggregated and
// queried by session, user, or request.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// HTTP Request
	// ========================================================================
	KeyRequestID  = "request_id"  // chi request ID
	KeyMethod     = "method"      // HTTP method
	KeyPath       = "path"        // Request path
	KeyStatus     = "status"      // HTTP response status code
	KeyBytes      = "bytes"       // Response bytes written
	KeyRemoteAddr = "remote_addr" // Client remote address
	KeyClientIP   = "client_ip"   // Client IP address (RealIP-resolved)

	// ========================================================================
	// Upload Session & Principal
	// ========================================================================
	KeySessionID      = "sessionId"      // Upload session identifier
	KeyUserID         = "userId"         // Authenticated caller identity (JWT subject)
	KeyIdempotencyKey = "idempotencyKey" // Client-supplied session creation idempotency key
	KeyDraftID        = "draftId"        // Content draft identifier

	// ========================================================================
	// Upload Content
	// ========================================================================
	KeyFilename      = "filename"       // Uploaded file name
	KeyMimeType      = "mimeType"       // Uploaded content MIME type
	KeyTotalBytes    = "totalBytes"     // Declared total upload size
	KeyChunkSize     = "chunkSize"      // Negotiated chunk size
	KeyBytesReceived = "bytesReceived"  // Bytes persisted so far
	KeyPartNumber    = "partNumber"     // Multipart upload part number
	KeyRangeStart    = "rangeStart"     // Content-Range start offset
	KeyRangeEnd      = "rangeEnd"       // Content-Range end offset (inclusive)

	// ========================================================================
	// Object Store
	// ========================================================================
	KeyBucket          = "bucket"          // Object store bucket name
	KeyStorageKey      = "storageKey"      // Object key in the store
	KeyStorageUploadID = "storageUploadId" // Backend multipart upload ID
	KeyRegion          = "region"          // Object store region

	// ========================================================================
	// Retries & Background Work
	// ========================================================================
	KeyAttempt    = "attempt"    // Retry attempt number
	KeyAttempts   = "attempts"   // Total attempts made
	KeyMaxRetries = "maxRetries" // Maximum retry attempts configured
	KeyEventType  = "eventType"  // Upload metric event type

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Application error code
	KeyOperation  = "operation"   // Sub-operation label
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// HTTP Request
// ----------------------------------------------------------------------------

// RequestID returns a slog.Attr for the chi request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Method returns a slog.Attr for the HTTP method
func Method(method string) slog.Attr {
	return slog.String(KeyMethod, method)
}

// Path returns a slog.Attr for the request path
func Path(path string) slog.Attr {
	return slog.String(KeyPath, path)
}

// Status returns a slog.Attr for the HTTP response status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Bytes returns a slog.Attr for response bytes written
func Bytes(n int) slog.Attr {
	return slog.Int(KeyBytes, n)
}

// RemoteAddr returns a slog.Attr for the client remote address
func RemoteAddr(addr string) slog.Attr {
	return slog.String(KeyRemoteAddr, addr)
}

// ClientIP returns a slog.Attr for the client IP address
func ClientIP(ip string) slog.Attr {
	return slog.String(KeyClientIP, ip)
}

// ----------------------------------------------------------------------------
// Upload Session & Principal
// ----------------------------------------------------------------------------

// SessionID returns a slog.Attr for the upload session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// UserID returns a slog.Attr for the authenticated caller identity
func UserID(id string) slog.Attr {
	return slog.String(KeyUserID, id)
}

// IdempotencyKey returns a slog.Attr for the session creation idempotency key
func IdempotencyKey(key string) slog.Attr {
	return slog.String(KeyIdempotencyKey, key)
}

// DraftID returns a slog.Attr for the content draft identifier
func DraftID(id string) slog.Attr {
	return slog.String(KeyDraftID, id)
}

// ----------------------------------------------------------------------------
// Upload Content
// ----------------------------------------------------------------------------

// Filename returns a slog.Attr for the uploaded file name
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// MimeType returns a slog.Attr for the uploaded content MIME type
func MimeType(mime string) slog.Attr {
	return slog.String(KeyMimeType, mime)
}

// TotalBytes returns a slog.Attr for the declared total upload size
func TotalBytes(n int64) slog.Attr {
	return slog.Int64(KeyTotalBytes, n)
}

// ChunkSize returns a slog.Attr for the negotiated chunk size
func ChunkSize(n int64) slog.Attr {
	return slog.Int64(KeyChunkSize, n)
}

// BytesReceived returns a slog.Attr for bytes persisted so far
func BytesReceived(n int64) slog.Attr {
	return slog.Int64(KeyBytesReceived, n)
}

// PartNumber returns a slog.Attr for the multipart upload part number
func PartNumber(n int) slog.Attr {
	return slog.Int(KeyPartNumber, n)
}

// RangeStart returns a slog.Attr for the Content-Range start offset
func RangeStart(n int64) slog.Attr {
	return slog.Int64(KeyRangeStart, n)
}

// RangeEnd returns a slog.Attr for the Content-Range end offset (inclusive)
func RangeEnd(n int64) slog.Attr {
	return slog.Int64(KeyRangeEnd, n)
}

// ----------------------------------------------------------------------------
// Object Store
// ----------------------------------------------------------------------------

// Bucket returns a slog.Attr for the object store bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// StorageKey returns a slog.Attr for the object key in the store
func StorageKey(key string) slog.Attr {
	return slog.String(KeyStorageKey, key)
}

// StorageUploadID returns a slog.Attr for the backend multipart upload ID
func StorageUploadID(id string) slog.Attr {
	return slog.String(KeyStorageUploadID, id)
}

// Region returns a slog.Attr for the object store region
func Region(region string) slog.Attr {
	return slog.String(KeyRegion, region)
}

// ----------------------------------------------------------------------------
// Retries & Background Work
// ----------------------------------------------------------------------------

// Attempt returns a slog.Attr for the current retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Attempts returns a slog.Attr for the total number of attempts made
func Attempts(n int) slog.Attr {
	return slog.Int(KeyAttempts, n)
}

// MaxRetries returns a slog.Attr for the configured maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// EventType returns a slog.Attr for an upload metric event type
func EventType(t string) slog.Attr {
	return slog.String(KeyEventType, t)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for an application error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Operation returns a slog.Attr for a sub-operation label
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}
