package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/reelverse/upload-service/internal/httpapi/problem"
	"github.com/reelverse/upload-service/pkg/upload/contentrange"
)

type streamingContextKey int

const chunkContextKey streamingContextKey = iota

// ChunkRequest is the parsed Content-Range/Content-Length pair attached to
// the request context by StreamingUpload.
type ChunkRequest struct {
	Range         contentrange.Range
	ContentLength int64
}

// GetChunkRequest returns the ChunkRequest attached by StreamingUpload, or
// the zero value and false if the middleware was not run (or parsing had
// already failed and the response was written).
func GetChunkRequest(ctx context.Context) (ChunkRequest, bool) {
	cr, ok := ctx.Value(chunkContextKey).(ChunkRequest)
	return cr, ok
}

// StreamingUpload parses Content-Range and Content-Length ahead of the
// handler, rejecting malformed headers before any body byte is read, and
// bounds the request with a per-chunk deadline. It never reads r.Body: the
// handler decides whether to consume it, and on a correctable mismatch it
// answers with a 308 without reading the body.
func StreamingUpload(chunkDeadline time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rangeHeader := r.Header.Get("Content-Range")
			parsed, err := contentrange.Parse(rangeHeader)
			if err != nil {
				problem.BadRequest(w, "malformed Content-Range header")
				return
			}

			var contentLength int64
			if !parsed.IsStatusProbe {
				raw := r.Header.Get("Content-Length")
				if raw == "" {
					problem.BadRequest(w, "missing Content-Length header")
					return
				}
				contentLength, err = strconv.ParseInt(raw, 10, 64)
				if err != nil || contentLength < 0 {
					problem.BadRequest(w, "non-numeric Content-Length header")
					return
				}
			}

			ctx, cancel := context.WithTimeout(r.Context(), chunkDeadline)
			defer cancel()

			ctx = context.WithValue(ctx, chunkContextKey, ChunkRequest{Range: parsed, ContentLength: contentLength})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
