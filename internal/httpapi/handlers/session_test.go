package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/reelverse/upload-service/internal/httpapi/auth"
	"github.com/reelverse/upload-service/internal/httpapi/middleware"
	"github.com/reelverse/upload-service/pkg/upload/models"
	"github.com/reelverse/upload-service/pkg/upload/objectstore"
	"github.com/reelverse/upload-service/pkg/upload/service"
)

const testJWTSecret = "test-secret-key-that-is-at-least-32-characters-long"

func testJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: testJWTSecret, Issuer: "test"})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}
	return svc
}

func signTestToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*models.UploadSession
	drafts   map[string]*models.ContentDraft
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*models.UploadSession), drafts: make(map[string]*models.ContentDraft)}
}

func (f *fakeStore) Create(ctx context.Context, s *models.UploadSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*models.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.UploadSession, error) {
	return nil, models.ErrSessionNotFound
}

func (f *fakeStore) WithLockedSession(ctx context.Context, id string, fn func(tx *gorm.DB, session *models.UploadSession) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	return fn(nil, s)
}

func (f *fakeStore) SetStatus(ctx context.Context, id string, status models.Status, errorCode *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeStore) ListStale(ctx context.Context, staleBefore time.Time) ([]models.UploadSession, error) {
	return nil, nil
}

func (f *fakeStore) CreateDraft(ctx context.Context, d *models.ContentDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.drafts[d.UploadID] = &cp
	return nil
}

func (f *fakeStore) GetDraft(ctx context.Context, uploadID string) (*models.ContentDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[uploadID]
	if !ok {
		return nil, models.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) UpdateDraft(ctx context.Context, d *models.ContentDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.drafts[d.UploadID]; !ok {
		return models.ErrDraftNotFound
	}
	cp := *d
	f.drafts[d.UploadID] = &cp
	return nil
}

func (f *fakeStore) RecordMetric(ctx context.Context, m *models.UploadMetric) error { return nil }

type fakeObjects struct{ mu sync.Mutex }

func (f *fakeObjects) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	return "upload-1", nil
}

func (f *fakeObjects) UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, contentLength int64) (objectstore.Part, error) {
	buf := make([]byte, contentLength)
	if _, err := io.ReadFull(body, buf); err != nil {
		return objectstore.Part{}, err
	}
	return objectstore.Part{PartNumber: int32(partNumber), ETag: "etag", Size: contentLength}, nil
}

func (f *fakeObjects) CompleteMultipart(ctx context.Context, key, uploadID string, parts []objectstore.Part) (objectstore.CompletedUpload, error) {
	return objectstore.CompletedUpload{Location: key, ETag: "final"}, nil
}

func (f *fakeObjects) AbortMultipart(ctx context.Context, key, uploadID string) error { return nil }

func fakeAppendPart(tx *gorm.DB, session *models.UploadSession, part models.Part) error {
	parts := session.Parts()
	if parts.Has(part.PartNumber) {
		return nil
	}
	parts = append(parts, part)
	if err := session.SetParts(parts); err != nil {
		return err
	}
	session.BytesReceived += part.Size
	return nil
}

func newTestService() (*service.Service, *fakeStore) {
	store := newFakeStore()
	svc := service.New(store, &fakeObjects{}, nil, fakeAppendPart, service.Config{
		MaxUploadBytes:   10 << 30,
		AllowedMimeTypes: []string{"video/mp4"},
		SessionTTL:       24 * time.Hour,
		ChunkDeadline:    2 * time.Minute,
	})
	return svc, store
}

// authedRequest builds a request carrying a valid bearer token for userID by
// running it through the real JWTAuth middleware and capturing the
// authenticated request it hands to the next handler.
func authedRequest(t *testing.T, method, url string, body io.Reader, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, userID))

	var authed *http.Request
	middleware.JWTAuth(testJWTService(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed = r
	})).ServeHTTP(httptest.NewRecorder(), req)

	if authed == nil {
		t.Fatal("JWTAuth rejected test token")
	}
	return authed
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestSessionCreate(t *testing.T) {
	svc, _ := newTestService()
	h := NewSessionHandler(svc, "http://localhost:8080")

	body, _ := json.Marshal(CreateSessionRequest{Filename: "clip.mp4", Size: 10240, MimeType: "video/mp4"})
	req := authedRequest(t, http.MethodPost, "/uploads?uploadType=resumable", bytes.NewReader(body), "u1")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Location") == "" {
		t.Error("expected Location header")
	}

	var resp CreateSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ChunkSize == 0 {
		t.Error("expected non-zero chunk size")
	}
}

func TestSessionCreateReturnsDraftID(t *testing.T) {
	svc, _ := newTestService()
	h := NewSessionHandler(svc, "http://localhost:8080")

	body, _ := json.Marshal(CreateSessionRequest{Filename: "clip.mp4", Size: 10240, MimeType: "video/mp4", Title: "My clip"})
	req := authedRequest(t, http.MethodPost, "/uploads?uploadType=resumable", bytes.NewReader(body), "u1")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CreateSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DraftID == "" {
		t.Error("expected non-empty draftId when draft fields are supplied")
	}
}

func TestSessionCreateRejectsWrongUploadType(t *testing.T) {
	svc, _ := newTestService()
	h := NewSessionHandler(svc, "http://localhost:8080")

	req := authedRequest(t, http.MethodPost, "/uploads?uploadType=direct", nil, "u1")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSessionAbort(t *testing.T) {
	svc, store := newTestService()
	h := NewSessionHandler(svc, "http://localhost:8080")
	ctx := context.Background()

	session := &models.UploadSession{ID: "s1", UserID: "u1", Status: models.StatusUploading, TotalBytes: 10240, ChunkSize: 1024}
	_ = session.SetParts(nil)
	_ = store.Create(ctx, session)

	req := authedRequest(t, http.MethodDelete, "/uploads/s1", nil, "u1")
	req = withURLParam(req, "id", "s1")
	rr := httptest.NewRecorder()

	h.Abort(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestSessionStatus(t *testing.T) {
	svc, store := newTestService()
	h := NewSessionHandler(svc, "http://localhost:8080")
	ctx := context.Background()

	session := &models.UploadSession{ID: "s2", UserID: "u1", Status: models.StatusUploading, TotalBytes: 10240, BytesReceived: 2048, ChunkSize: 1024}
	_ = session.SetParts(nil)
	_ = store.Create(ctx, session)

	req := authedRequest(t, http.MethodGet, "/uploads/s2/status", nil, "u1")
	req = withURLParam(req, "id", "s2")
	rr := httptest.NewRecorder()

	h.Status(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BytesReceived != 2048 {
		t.Errorf("expected bytesReceived 2048, got %d", resp.BytesReceived)
	}
}

func TestSessionStatusForbiddenForWrongOwner(t *testing.T) {
	svc, store := newTestService()
	h := NewSessionHandler(svc, "http://localhost:8080")
	ctx := context.Background()

	session := &models.UploadSession{ID: "s3", UserID: "u1", Status: models.StatusUploading, TotalBytes: 10240, ChunkSize: 1024}
	_ = session.SetParts(nil)
	_ = store.Create(ctx, session)

	req := authedRequest(t, http.MethodGet, "/uploads/s3/status", nil, "u2")
	req = withURLParam(req, "id", "s3")
	rr := httptest.NewRecorder()

	h.Status(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
