package store

import (
	"context"
	"testing"
	"time"

	"github.com/reelverse/upload-service/pkg/upload/models"
	"gorm.io/gorm"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return s
}

func newTestSession(id, userID string) *models.UploadSession {
	return &models.UploadSession{
		ID:              id,
		UserID:          userID,
		Filename:        "clip.mp4",
		MimeType:        "video/mp4",
		TotalBytes:      1 << 20,
		ChunkSize:       1 << 18,
		StorageKey:      "uploads/" + id,
		StorageUploadID: "upload-" + id,
		Status:          models.StatusUploading,
		ExpiresAt:       time.Now().Add(time.Hour),
	}
}

func TestNew(t *testing.T) {
	t.Run("creates in-memory store", func(t *testing.T) {
		s := createTestStore(t)
		defer s.Close()
		if s == nil {
			t.Fatal("expected non-nil store")
		}
	})

	t.Run("rejects unsupported driver", func(t *testing.T) {
		_, err := New(Config{Driver: "oracle", DSN: "x"})
		if err == nil {
			t.Error("expected error for unsupported driver")
		}
	})
}

func TestCreateAndGet(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	session := newTestSession("sess-1", "user-1")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", got.UserID)
	}
}

func TestGetNotFound(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()

	_, err := s.Get(context.Background(), "missing")
	if err != models.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestFindByIdempotencyKey(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	key := "req-123"
	session := newTestSession("sess-2", "user-1")
	session.IdempotencyKey = &key
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("finds existing", func(t *testing.T) {
		got, err := s.FindByIdempotencyKey(ctx, "user-1", key)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.ID != "sess-2" {
			t.Errorf("expected sess-2, got %s", got.ID)
		}
	})

	t.Run("scoped per user", func(t *testing.T) {
		_, err := s.FindByIdempotencyKey(ctx, "user-2", key)
		if err != models.ErrSessionNotFound {
			t.Errorf("expected ErrSessionNotFound for different user, got %v", err)
		}
	})
}

func TestDuplicateIdempotencyKeyRejected(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	key := "req-dup"
	first := newTestSession("sess-3", "user-1")
	first.IdempotencyKey = &key
	if err := s.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := newTestSession("sess-4", "user-1")
	second.IdempotencyKey = &key
	err := s.Create(ctx, second)
	if err != models.ErrDuplicateIdempotency {
		t.Errorf("expected ErrDuplicateIdempotency, got %v", err)
	}
}

func TestWithLockedSessionAppendPart(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	session := newTestSession("sess-5", "user-1")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	part := models.Part{PartNumber: 1, ETag: "etag-1", Size: 4096, UploadedAt: time.Now()}
	err := s.WithLockedSession(ctx, "sess-5", func(tx *gorm.DB, locked *models.UploadSession) error {
		return AppendPart(tx, locked, part)
	})
	if err != nil {
		t.Fatalf("with locked session: %v", err)
	}

	got, err := s.Get(ctx, "sess-5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BytesReceived != 4096 {
		t.Errorf("expected 4096 bytes received, got %d", got.BytesReceived)
	}
	if !got.Parts().Has(1) {
		t.Error("expected part 1 to be recorded")
	}

	t.Run("duplicate part is a no-op", func(t *testing.T) {
		err := s.WithLockedSession(ctx, "sess-5", func(tx *gorm.DB, locked *models.UploadSession) error {
			return AppendPart(tx, locked, part)
		})
		if err != nil {
			t.Fatalf("with locked session: %v", err)
		}
		got, err := s.Get(ctx, "sess-5")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.BytesReceived != 4096 {
			t.Errorf("expected bytes received unchanged at 4096, got %d", got.BytesReceived)
		}
	})
}

func TestSetStatus(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	session := newTestSession("sess-6", "user-1")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.SetStatus(ctx, "sess-6", models.StatusUploaded, nil); err != nil {
		t.Fatalf("set status: %v", err)
	}

	got, err := s.Get(ctx, "sess-6")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusUploaded {
		t.Errorf("expected uploaded, got %s", got.Status)
	}

	t.Run("missing session", func(t *testing.T) {
		if err := s.SetStatus(ctx, "missing", models.StatusFailed, nil); err != models.ErrSessionNotFound {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestSetIPFS(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	session := newTestSession("sess-7", "user-1")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.SetIPFS(ctx, "sess-7", "bafy123", "pinned"); err != nil {
		t.Fatalf("set ipfs: %v", err)
	}

	got, err := s.Get(ctx, "sess-7")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CID == nil || *got.CID != "bafy123" {
		t.Errorf("expected cid bafy123, got %v", got.CID)
	}
}

func TestListStale(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	expired := newTestSession("sess-8", "user-1")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	if err := s.Create(ctx, expired); err != nil {
		t.Fatalf("create expired: %v", err)
	}

	fresh := newTestSession("sess-9", "user-1")
	if err := s.Create(ctx, fresh); err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	stale, err := s.ListStale(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "sess-8" {
		t.Errorf("expected only sess-8 to be stale, got %+v", stale)
	}
}

func TestDraftLifecycle(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	draft := &models.ContentDraft{
		ID:       "draft-1",
		UploadID: "sess-10",
		UserID:   "user-1",
		Title:    "My Video",
	}
	if err := s.CreateDraft(ctx, draft); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	got, err := s.GetDraft(ctx, "sess-10")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if got.Title != "My Video" {
		t.Errorf("expected title 'My Video', got %s", got.Title)
	}

	got.Title = "Renamed"
	if err := s.UpdateDraft(ctx, got); err != nil {
		t.Fatalf("update draft: %v", err)
	}

	updated, err := s.GetDraft(ctx, "sess-10")
	if err != nil {
		t.Fatalf("get draft after update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("expected title 'Renamed', got %s", updated.Title)
	}

	t.Run("missing draft", func(t *testing.T) {
		_, err := s.GetDraft(ctx, "missing")
		if err != models.ErrDraftNotFound {
			t.Errorf("expected ErrDraftNotFound, got %v", err)
		}
	})
}

func TestRecordMetric(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()
	ctx := context.Background()

	metric := &models.UploadMetric{
		UploadID:  "sess-11",
		UserID:    "user-1",
		EventType: "chunk_received",
	}
	if err := s.RecordMetric(ctx, metric); err != nil {
		t.Fatalf("record metric: %v", err)
	}
}

func TestHealthcheck(t *testing.T) {
	s := createTestStore(t)
	defer s.Close()

	if err := s.Healthcheck(context.Background()); err != nil {
		t.Errorf("expected healthy store, got %v", err)
	}
}
