package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reelverse/upload-service/pkg/upload/models"
)

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"session not found", models.ErrSessionNotFound, http.StatusNotFound},
		{"draft not found", models.ErrDraftNotFound, http.StatusNotFound},
		{"session not owned", models.ErrSessionNotOwned, http.StatusForbidden},
		{"session not uploading", models.ErrSessionNotUploading, http.StatusConflict},
		{"duplicate idempotency", models.ErrDuplicateIdempotency, http.StatusConflict},
		{"file too large", models.ErrFileTooLarge, http.StatusBadRequest},
		{"unsupported type", models.ErrUnsupportedType, http.StatusBadRequest},
		{"unsupported upload type", models.ErrUnsupportedUploadType, http.StatusBadRequest},
		{"invalid content range", models.ErrInvalidContentRange, http.StatusBadRequest},
		{"missing content length", models.ErrMissingContentLength, http.StatusBadRequest},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := MapStoreError(tt.err)
			if status != tt.wantStatus {
				t.Errorf("MapStoreError(%v) status = %d, want %d", tt.err, status, tt.wantStatus)
			}
		})
	}
}

func TestMapStoreError_WrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), models.ErrSessionNotFound)
	status, _ := MapStoreError(wrapped)
	if status != http.StatusNotFound {
		t.Errorf("MapStoreError(wrapped) status = %d, want %d", status, http.StatusNotFound)
	}
}

func TestHandleStoreError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantTitle  string
	}{
		{
			name:       "not found",
			err:        models.ErrSessionNotFound,
			wantStatus: http.StatusNotFound,
			wantTitle:  "Not Found",
		},
		{
			name:       "conflict",
			err:        models.ErrSessionNotUploading,
			wantStatus: http.StatusConflict,
			wantTitle:  "Conflict",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleStoreError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleStoreError status = %d, want %d", w.Code, tt.wantStatus)
			}

			ct := w.Header().Get("Content-Type")
			if ct != ContentTypeProblemJSON {
				t.Errorf("Content-Type = %q, want %q", ct, ContentTypeProblemJSON)
			}

			var p Problem
			if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
				t.Fatalf("failed to decode problem response: %v", err)
			}
			if p.Title != tt.wantTitle {
				t.Errorf("problem.Title = %q, want %q", p.Title, tt.wantTitle)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("problem.Status = %d, want %d", p.Status, tt.wantStatus)
			}
		})
	}
}
