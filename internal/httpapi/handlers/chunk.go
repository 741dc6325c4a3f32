package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelverse/upload-service/internal/httpapi/middleware"
	"github.com/reelverse/upload-service/pkg/upload/contentrange"
	"github.com/reelverse/upload-service/pkg/upload/service"
)

// ChunkHandler serves PUT /uploads/{id}, the resumable chunk/status-probe
// endpoint. It depends on middleware.StreamingUpload having already parsed
// Content-Range and Content-Length into the request context.
type ChunkHandler struct {
	service *service.Service
}

func NewChunkHandler(svc *service.Service) *ChunkHandler {
	return &ChunkHandler{service: svc}
}

// CompleteResponse is the JSON body returned on a 201 completion.
type CompleteResponse struct {
	UploadID   string `json:"uploadId"`
	StorageKey string `json:"storageKey"`
	Size       int64  `json:"size"`
}

// Put handles PUT /uploads/{id}.
func (h *ChunkHandler) Put(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "missing bearer token")
		return
	}

	chunk, ok := middleware.GetChunkRequest(r.Context())
	if !ok {
		BadRequest(w, "malformed Content-Range header")
		return
	}

	id := chi.URLParam(r, "id")
	outcome, err := h.service.AppendChunk(r.Context(), id, claims.UserID(), chunk.Range, chunk.ContentLength, r.Body)
	if err != nil {
		// A part may have been rejected before any body read occurred; close
		// the body defensively so the connection can be reused.
		_ = r.Body.Close()
		HandleStoreError(w, err)
		return
	}

	if outcome.Completed {
		WriteJSON(w, http.StatusCreated, CompleteResponse{
			UploadID:   id,
			StorageKey: outcome.StorageKey,
			Size:       outcome.BytesReceived,
		})
		return
	}

	writeProgress(w, outcome.BytesReceived)
}

// writeProgress writes the 308 Resume Incomplete progress/correction
// response shared by status probes and correctable chunk mismatches.
func writeProgress(w http.ResponseWriter, bytesReceived int64) {
	offset, rangeHeader, hasRange := contentrange.ProgressHeaders(bytesReceived)
	w.Header().Set("Upload-Offset", offset)
	if hasRange {
		w.Header().Set("Range", rangeHeader)
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusPermanentRedirect)
}
