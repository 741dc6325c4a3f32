package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelverse/upload-service/internal/httpapi/middleware"
	"github.com/reelverse/upload-service/pkg/upload/service"
)

// SessionHandler serves session-create, status, abort, and draft routes.
type SessionHandler struct {
	service *service.Service
	baseURL string
}

func NewSessionHandler(svc *service.Service, baseURL string) *SessionHandler {
	return &SessionHandler{service: svc, baseURL: baseURL}
}

// CreateSessionRequest is the JSON body of POST /uploads.
type CreateSessionRequest struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mimeType"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
	Category    string `json:"category,omitempty"`
}

// CreateSessionResponse is the JSON body returned by POST /uploads.
type CreateSessionResponse struct {
	UploadID   string `json:"uploadId"`
	SessionURL string `json:"sessionUrl"`
	ChunkSize  int64  `json:"chunkSize"`
	DraftID    string `json:"draftId,omitempty"`
}

// Create handles POST /uploads?uploadType=resumable.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if uploadType := r.URL.Query().Get("uploadType"); uploadType != "resumable" {
		BadRequest(w, `uploadType must be "resumable"`)
		return
	}

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "missing bearer token")
		return
	}

	var req CreateSessionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	var draftInput *service.DraftInput
	if req.Title != "" || req.Description != "" || req.Tags != "" || req.Visibility != "" || req.Category != "" {
		draftInput = &service.DraftInput{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			Visibility:  req.Visibility,
			Category:    req.Category,
		}
	}

	session, draft, existed, err := h.service.CreateSession(r.Context(), service.CreateInput{
		UserID:         claims.UserID(),
		Filename:       req.Filename,
		Size:           req.Size,
		MimeType:       req.MimeType,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Draft:          draftInput,
	})
	if err != nil {
		HandleStoreError(w, err)
		return
	}

	sessionURL := h.baseURL + "/uploads/" + session.ID

	w.Header().Set("Location", sessionURL)
	w.Header().Set("X-Upload-Content-Length", itoa64(session.TotalBytes))
	w.Header().Set("X-Upload-Content-Type", session.MimeType)
	w.Header().Set("Cache-Control", "no-store")

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}

	resp := CreateSessionResponse{
		UploadID:   session.ID,
		SessionURL: sessionURL,
		ChunkSize:  session.ChunkSize,
	}
	if draft != nil {
		resp.DraftID = draft.ID
	}

	WriteJSON(w, status, resp)
}

// Abort handles DELETE /uploads/{id}.
func (h *SessionHandler) Abort(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "missing bearer token")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Abort(r.Context(), id, claims.UserID()); err != nil {
		HandleStoreError(w, err)
		return
	}
	WriteNoContent(w)
}

// StatusResponse is the JSON body returned by GET /uploads/{id}/status.
type StatusResponse struct {
	Status        string  `json:"status"`
	BytesReceived int64   `json:"bytesReceived"`
	TotalBytes    int64   `json:"totalBytes"`
	Progress      float64 `json:"progress"`
	CID           string  `json:"cid,omitempty"`
	PlaybackURL   string  `json:"playbackUrl,omitempty"`
	ErrorCode     string  `json:"errorCode,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// Status handles GET /uploads/{id}/status.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "missing bearer token")
		return
	}

	id := chi.URLParam(r, "id")
	session, err := h.service.Status(r.Context(), id, claims.UserID())
	if err != nil {
		HandleStoreError(w, err)
		return
	}

	resp := StatusResponse{
		Status:        string(session.Status),
		BytesReceived: session.BytesReceived,
		TotalBytes:    session.TotalBytes,
		Progress:      session.Progress(),
		CreatedAt:     session.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     session.UpdatedAt.UTC().Format(timeFormat),
	}
	if session.CID != nil {
		resp.CID = *session.CID
	}
	if session.PlaybackURL != nil {
		resp.PlaybackURL = *session.PlaybackURL
	}
	if session.ErrorCode != nil {
		resp.ErrorCode = *session.ErrorCode
	}

	WriteJSONOK(w, resp)
}

// DraftRequest is the JSON body of PUT /uploads/{id}/draft.
type DraftRequest struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	Tags         string `json:"tags,omitempty"`
	Visibility   string `json:"visibility,omitempty"`
	Category     string `json:"category,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Draft handles PUT /uploads/{id}/draft.
func (h *SessionHandler) Draft(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "missing bearer token")
		return
	}

	var req DraftRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	draft, err := h.service.UpdateDraft(r.Context(), id, claims.UserID(), service.DraftInput{
		Title:        req.Title,
		Description:  req.Description,
		Tags:         req.Tags,
		Visibility:   req.Visibility,
		Category:     req.Category,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		HandleStoreError(w, err)
		return
	}

	WriteJSONOK(w, draft)
}
