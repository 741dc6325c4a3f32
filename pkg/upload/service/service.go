// Package service implements UploadSessionService, the orchestrator that
// ties the ContentRange codec, SessionStore, and ObjectStore adapter into the
// resumable-upload state machine.
package service

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reelverse/upload-service/internal/logger"
	"github.com/reelverse/upload-service/pkg/upload/contentrange"
	"github.com/reelverse/upload-service/pkg/upload/models"
	"github.com/reelverse/upload-service/pkg/upload/objectstore"
)

const (
	minChunkSize  = 8 * 1024 * 1024
	chunkRounding = 5 * 1024 * 1024
	maxParts      = 9000
	maxPartNumber = 10000
)

// SessionStore is the persistence contract this service depends on. It is
// satisfied by *store.Store; declared here so the service can be tested
// against an in-memory fake without importing the concrete store package.
type SessionStore interface {
	Create(ctx context.Context, session *models.UploadSession) error
	Get(ctx context.Context, id string) (*models.UploadSession, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.UploadSession, error)
	WithLockedSession(ctx context.Context, id string, fn func(tx *gorm.DB, session *models.UploadSession) error) error
	SetStatus(ctx context.Context, id string, status models.Status, errorCode *string) error
	ListStale(ctx context.Context, staleBefore time.Time) ([]models.UploadSession, error)
	CreateDraft(ctx context.Context, draft *models.ContentDraft) error
	GetDraft(ctx context.Context, uploadID string) (*models.ContentDraft, error)
	UpdateDraft(ctx context.Context, draft *models.ContentDraft) error
	RecordMetric(ctx context.Context, metric *models.UploadMetric) error
}

// ObjectStore is the multipart-upload contract this service depends on.
// Satisfied by *objectstore.Store.
type ObjectStore interface {
	CreateMultipart(ctx context.Context, key, contentType string) (uploadID string, err error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, contentLength int64) (objectstore.Part, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []objectstore.Part) (objectstore.CompletedUpload, error)
	AbortMultipart(ctx context.Context, key, uploadID string) error
}

// Dispatcher enqueues the post-completion transcode-and-pin job. See
// pkg/upload/jobs for the in-process implementation.
type Dispatcher interface {
	Enqueue(ctx context.Context, job CompletionJob) error
}

// AppendPartFunc performs the row-locked append of part onto session within
// an active transaction. Satisfied by pkg/upload/store.AppendPart; injected
// rather than imported directly so this package stays free of a dependency
// on the concrete store.
type AppendPartFunc func(tx *gorm.DB, session *models.UploadSession, part models.Part) error

// CompletionJob is the message handed to the downstream transcode/pin
// pipeline once a session completes.
type CompletionJob struct {
	SessionID  string
	StorageKey string
	UserID     string
	Filename   string
	MimeType   string
	TotalBytes int64
}

// Config bounds what the service will accept at session-create time.
type Config struct {
	MaxUploadBytes   int64
	AllowedMimeTypes []string // lower-cased
	SessionTTL       time.Duration
	ChunkDeadline    time.Duration
}

// Service is the UploadSessionService.
type Service struct {
	sessions   SessionStore
	objects    ObjectStore
	jobs       Dispatcher
	appendPart AppendPartFunc
	cfg        Config
}

func New(sessions SessionStore, objects ObjectStore, jobs Dispatcher, appendPart AppendPartFunc, cfg Config) *Service {
	return &Service{sessions: sessions, objects: objects, jobs: jobs, appendPart: appendPart, cfg: cfg}
}

// CreateInput carries the caller-supplied fields for CreateSession.
type CreateInput struct {
	UserID         string
	Filename       string
	Size           int64
	MimeType       string
	IdempotencyKey string
	Draft          *DraftInput
}

// DraftInput is the optional metadata bag supplied at session-create.
type DraftInput struct {
	Title        string
	Description  string
	Tags         string
	Visibility   string
	Category     string
	ThumbnailURL string
}

// CreateSession validates in, reuses an existing session for a repeated
// idempotency key, or creates a new multipart upload and session row.
// existed reports whether a prior session was returned unchanged, so the
// HTTP layer can choose 200 vs. 201. draft is non-nil only when in.Draft was
// set and the draft row was created successfully.
func (s *Service) CreateSession(ctx context.Context, in CreateInput) (session *models.UploadSession, draft *models.ContentDraft, existed bool, err error) {
	if in.Size <= 0 || in.Size > s.cfg.MaxUploadBytes {
		return nil, nil, false, models.ErrFileTooLarge
	}
	if !s.mimeTypeAllowed(in.MimeType) {
		return nil, nil, false, models.ErrUnsupportedType
	}

	if in.IdempotencyKey != "" {
		existing, err := s.sessions.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err == nil {
			return existing, nil, true, nil
		}
		if err != models.ErrSessionNotFound {
			return nil, nil, false, fmt.Errorf("service: lookup idempotency key: %w", err)
		}
	}

	filename := sanitizeFilename(in.Filename)
	chunkSize := computeChunkSize(in.Size)
	sessionID := uuid.New().String()
	storageKey := fmt.Sprintf("uploads/%s/%s/%s", in.UserID, sessionID, filename)

	uploadID, err := s.objects.CreateMultipart(ctx, storageKey, in.MimeType)
	if err != nil {
		return nil, nil, false, fmt.Errorf("service: create multipart upload: %w", err)
	}

	var idempotencyKey *string
	if in.IdempotencyKey != "" {
		idempotencyKey = &in.IdempotencyKey
	}

	session = &models.UploadSession{
		ID:              sessionID,
		UserID:          in.UserID,
		Filename:        filename,
		MimeType:        in.MimeType,
		TotalBytes:      in.Size,
		ChunkSize:       chunkSize,
		StorageKey:      storageKey,
		StorageUploadID: uploadID,
		Status:          models.StatusUploading,
		IdempotencyKey:  idempotencyKey,
		ExpiresAt:       time.Now().Add(s.cfg.SessionTTL),
	}
	if err := session.SetParts(nil); err != nil {
		return nil, nil, false, fmt.Errorf("service: init parts: %w", err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		_ = s.objects.AbortMultipart(ctx, storageKey, uploadID)
		return nil, nil, false, fmt.Errorf("service: persist session: %w", err)
	}

	if in.Draft != nil {
		candidate := &models.ContentDraft{
			ID:           uuid.New().String(),
			UploadID:     sessionID,
			UserID:       in.UserID,
			Title:        in.Draft.Title,
			Description:  in.Draft.Description,
			Tags:         in.Draft.Tags,
			Visibility:   in.Draft.Visibility,
			Category:     in.Draft.Category,
			ThumbnailURL: in.Draft.ThumbnailURL,
		}
		if err := s.sessions.CreateDraft(ctx, candidate); err != nil {
			logger.Error("create content draft", logger.Err(err), logger.SessionID(sessionID))
		} else {
			draft = candidate
		}
	}

	return session, draft, false, nil
}

// ChunkOutcome describes the result of AppendChunk so handlers can pick the
// right wire response without re-deriving state.
type ChunkOutcome struct {
	Completed     bool
	BytesReceived int64
	TotalBytes    int64
	StorageKey    string
}

// AppendChunk processes one PUT /uploads/{id}, handling both status probes
// and data chunks. On a correctable mismatch it returns a non-completed
// ChunkOutcome carrying the session's current bytesReceived; callers must
// not have read body bytes from an already-invalid range before calling.
func (s *Service) AppendChunk(ctx context.Context, sessionID, userID string, r contentrange.Range, contentLength int64, body io.Reader) (ChunkOutcome, error) {
	var session models.UploadSession
	var mismatch bool
	validateErr := s.sessions.WithLockedSession(ctx, sessionID, func(tx *gorm.DB, locked *models.UploadSession) error {
		if locked.UserID != userID {
			return models.ErrSessionNotOwned
		}
		if locked.Status != models.StatusUploading {
			return models.ErrSessionNotUploading
		}
		session = *locked
		if !r.IsStatusProbe && !validChunk(r, contentLength, locked) {
			mismatch = true
		}
		return nil
	})
	if validateErr != nil {
		return ChunkOutcome{}, validateErr
	}

	if r.IsStatusProbe || mismatch {
		return ChunkOutcome{BytesReceived: session.BytesReceived, TotalBytes: session.TotalBytes}, nil
	}

	partNumber := int(r.Start/session.ChunkSize) + 1

	part, err := s.objects.UploadPart(ctx, session.StorageKey, session.StorageUploadID, partNumber, body, contentLength)
	if err != nil {
		return ChunkOutcome{}, fmt.Errorf("service: upload part: %w", err)
	}

	var updated models.UploadSession
	appendErr := s.sessions.WithLockedSession(ctx, sessionID, func(tx *gorm.DB, locked *models.UploadSession) error {
		if err := s.appendPart(tx, locked, models.Part{
			PartNumber: partNumber,
			ETag:       part.ETag,
			Size:       contentLength,
			UploadedAt: time.Now(),
		}); err != nil {
			return err
		}
		updated = *locked
		return nil
	})
	if appendErr != nil {
		return ChunkOutcome{}, fmt.Errorf("service: append part: %w", appendErr)
	}

	s.recordMetric(ctx, sessionID, userID, "chunk_received", &partNumber, &contentLength, nil)

	if updated.BytesReceived == session.TotalBytes {
		if err := s.complete(ctx, sessionID, &updated); err != nil {
			return ChunkOutcome{}, err
		}
		return ChunkOutcome{Completed: true, BytesReceived: updated.BytesReceived, TotalBytes: session.TotalBytes, StorageKey: session.StorageKey}, nil
	}

	return ChunkOutcome{BytesReceived: updated.BytesReceived, TotalBytes: session.TotalBytes}, nil
}

func (s *Service) complete(ctx context.Context, sessionID string, session *models.UploadSession) error {
	parts := session.Parts()
	objParts := make([]objectstore.Part, len(parts))
	for i, p := range parts {
		objParts[i] = objectstore.Part{PartNumber: int32(p.PartNumber), ETag: p.ETag, Size: p.Size}
	}
	sort.Slice(objParts, func(i, j int) bool { return objParts[i].PartNumber < objParts[j].PartNumber })

	if _, err := s.objects.CompleteMultipart(ctx, session.StorageKey, session.StorageUploadID, objParts); err != nil {
		code := "complete_multipart_failed"
		_ = s.sessions.SetStatus(ctx, sessionID, models.StatusFailed, &code)
		return fmt.Errorf("service: complete multipart upload: %w", err)
	}

	if err := s.sessions.SetStatus(ctx, sessionID, models.StatusUploaded, nil); err != nil {
		return fmt.Errorf("service: mark uploaded: %w", err)
	}

	if s.jobs != nil {
		job := CompletionJob{
			SessionID:  sessionID,
			StorageKey: session.StorageKey,
			UserID:     session.UserID,
			Filename:   session.Filename,
			MimeType:   session.MimeType,
			TotalBytes: session.TotalBytes,
		}
		if err := s.jobs.Enqueue(ctx, job); err != nil {
			logger.Error("enqueue completion job", logger.Err(err), logger.SessionID(sessionID))
		}
	}

	return nil
}

// Abort cancels the multipart upload and marks the session aborted.
// Idempotent: aborting an already-terminal session is a no-op success.
func (s *Service) Abort(ctx context.Context, sessionID, userID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return models.ErrSessionNotOwned
	}
	if session.Status != models.StatusUploading {
		return nil
	}

	if err := s.objects.AbortMultipart(ctx, session.StorageKey, session.StorageUploadID); err != nil {
		return fmt.Errorf("service: abort multipart upload: %w", err)
	}
	return s.sessions.SetStatus(ctx, sessionID, models.StatusAborted, nil)
}

// Status returns the current snapshot of a session, for GET .../status.
func (s *Service) Status(ctx context.Context, sessionID, userID string) (*models.UploadSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrSessionNotOwned
	}
	return session, nil
}

// UpdateDraft mutates the content draft attached to sessionID.
func (s *Service) UpdateDraft(ctx context.Context, sessionID, userID string, in DraftInput) (*models.ContentDraft, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrSessionNotOwned
	}

	draft, err := s.sessions.GetDraft(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	draft.Title = in.Title
	draft.Description = in.Description
	draft.Tags = in.Tags
	draft.Visibility = in.Visibility
	draft.Category = in.Category
	draft.ThumbnailURL = in.ThumbnailURL

	if err := s.sessions.UpdateDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *Service) recordMetric(ctx context.Context, sessionID, userID, eventType string, chunkNumber *int, chunkSizeBytes, processingTimeMs *int64) {
	metric := &models.UploadMetric{
		UploadID:         sessionID,
		UserID:           userID,
		EventType:        eventType,
		ChunkNumber:      chunkNumber,
		ChunkSizeBytes:   chunkSizeBytes,
		ProcessingTimeMs: processingTimeMs,
	}
	if err := s.sessions.RecordMetric(ctx, metric); err != nil {
		logger.Error("record upload metric", logger.Err(err), logger.SessionID(sessionID))
	}
}

func (s *Service) mimeTypeAllowed(mimeType string) bool {
	if len(s.cfg.AllowedMimeTypes) == 0 {
		return true
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, allowed := range s.cfg.AllowedMimeTypes {
		if strings.ToLower(allowed) == mimeType {
			return true
		}
	}
	return false
}

// computeChunkSize picks the smallest 5 MiB multiple at least 8 MiB such
// that the total number of parts does not exceed 9000.
func computeChunkSize(totalBytes int64) int64 {
	chunk := ceilDiv(minChunkSize, chunkRounding) * chunkRounding
	for ceilDiv(totalBytes, chunk) > maxParts {
		chunk += chunkRounding
	}
	return chunk
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// validChunk applies the five chunk-alignment checks from the data model
// against the locked session state. Returns false for any correctable
// mismatch; the caller responds with a 308 correction rather than an error.
func validChunk(r contentrange.Range, contentLength int64, session *models.UploadSession) bool {
	total := r.ResolveTotal(session.TotalBytes)
	if total != session.TotalBytes {
		return false
	}
	if r.Start != session.BytesReceived {
		return false
	}
	if contentLength != r.Size() {
		return false
	}
	size := r.Size()
	isFinal := r.End == session.TotalBytes-1
	if size != session.ChunkSize && !isFinal {
		return false
	}
	partNumber := r.Start/session.ChunkSize + 1
	if partNumber < 1 || partNumber > maxPartNumber {
		return false
	}
	return true
}

var disallowedFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename collapses runs of disallowed characters to "_", strips
// leading/trailing dots and spaces, defaults to "upload", and caps length
// at 255 bytes.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = disallowedFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "upload"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
