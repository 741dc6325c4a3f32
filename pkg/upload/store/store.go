// Package store implements SessionStore, the GORM-backed persistence layer
// for upload sessions, content drafts, and upload metrics. It runs against
// both SQLite (development/testing) and PostgreSQL (production).
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelverse/upload-service/pkg/upload/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Driver selects the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config configures the SessionStore's database connection.
type Config struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store is the GORM-backed SessionStore.
type Store struct {
	db *gorm.DB
}

// New opens the database connection and applies schema migrations: versioned
// SQL migrations for PostgreSQL, GORM AutoMigrate for SQLite.
func New(cfg Config) (*Store, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case DriverSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("store: create sqlite directory: %w", err)
			}
		}
		dialector = sqliteDialector(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if cfg.Driver == DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: get sql.DB: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	switch cfg.Driver {
	case DriverPostgres:
		if err := runPostgresMigrations(cfg.DSN); err != nil {
			return nil, err
		}
	default:
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return nil, fmt.Errorf("store: auto-migrate: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying *gorm.DB for callers (migrations, tests) that
// need direct access.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Healthcheck verifies the database connection is alive.
func (s *Store) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}

// Create inserts a new upload session.
func (s *Store) Create(ctx context.Context, session *models.UploadSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicateIdempotency
		}
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// Get returns the session with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*models.UploadSession, error) {
	var session models.UploadSession
	err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrSessionNotFound)
	}
	return &session, nil
}

// FindByIdempotencyKey returns the session previously created for userID
// with the given idempotency key, if any.
func (s *Store) FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.UploadSession, error) {
	var session models.UploadSession
	err := s.db.WithContext(ctx).
		First(&session, "user_id = ? AND idempotency_key = ?", userID, key).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrSessionNotFound)
	}
	return &session, nil
}

// WithLockedSession runs fn with the session row locked for the duration of
// the transaction: PostgreSQL takes a SELECT ... FOR UPDATE row lock, SQLite
// serializes via its single-writer transaction semantics. This is the only
// synchronization point between concurrent chunk PUTs against the same
// session.
func (s *Store) WithLockedSession(ctx context.Context, id string, fn func(tx *gorm.DB, session *models.UploadSession) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.UploadSession
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(lockingClause())
		}
		if err := q.First(&session, "id = ?", id).Error; err != nil {
			return convertNotFoundError(err, models.ErrSessionNotFound)
		}
		return fn(tx, &session)
	})
}

// AppendPart appends part to the session's parts list, advances
// BytesReceived, and persists both in the same update. Call this from
// within WithLockedSession.
func AppendPart(tx *gorm.DB, session *models.UploadSession, part models.Part) error {
	parts := session.Parts()
	if parts.Has(part.PartNumber) {
		return nil
	}
	parts = append(parts, part)
	if err := session.SetParts(parts); err != nil {
		return fmt.Errorf("store: encode parts: %w", err)
	}
	session.BytesReceived += part.Size
	return tx.Model(session).Select("parts", "bytes_received", "updated_at").
		Updates(map[string]any{
			"parts":          session.PartsJSON,
			"bytes_received": session.BytesReceived,
			"updated_at":     time.Now(),
		}).Error
}

// SetStatus transitions the session to status, optionally recording an error
// code (for StatusFailed).
func (s *Store) SetStatus(ctx context.Context, id string, status models.Status, errorCode *string) error {
	updates := map[string]any{"status": status, "updated_at": time.Now()}
	if errorCode != nil {
		updates["error_code"] = *errorCode
	}
	res := s.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("store: set status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// SetIPFS records the CID and pin status once the object has been pinned.
func (s *Store) SetIPFS(ctx context.Context, id, cid, pinStatus string) error {
	res := s.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"cid": cid, "pin_status": pinStatus, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("store: set ipfs: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// ListStale returns uploading sessions whose ExpiresAt has passed or whose
// last update predates staleBefore, for the reaper sweep.
func (s *Store) ListStale(ctx context.Context, staleBefore time.Time) ([]models.UploadSession, error) {
	var sessions []models.UploadSession
	err := s.db.WithContext(ctx).
		Where("status = ? AND (expires_at < ? OR updated_at < ?)", models.StatusUploading, time.Now(), staleBefore).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("store: list stale sessions: %w", err)
	}
	return sessions, nil
}

// CreateDraft inserts a new content draft.
func (s *Store) CreateDraft(ctx context.Context, draft *models.ContentDraft) error {
	if err := s.db.WithContext(ctx).Create(draft).Error; err != nil {
		return fmt.Errorf("store: create draft: %w", err)
	}
	return nil
}

// GetDraft returns the draft for the given upload ID.
func (s *Store) GetDraft(ctx context.Context, uploadID string) (*models.ContentDraft, error) {
	var draft models.ContentDraft
	err := s.db.WithContext(ctx).First(&draft, "upload_id = ?", uploadID).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrDraftNotFound)
	}
	return &draft, nil
}

// UpdateDraft overwrites the mutable fields of an existing draft.
func (s *Store) UpdateDraft(ctx context.Context, draft *models.ContentDraft) error {
	res := s.db.WithContext(ctx).Model(&models.ContentDraft{}).
		Where("upload_id = ?", draft.UploadID).
		Updates(map[string]any{
			"title":         draft.Title,
			"description":   draft.Description,
			"tags":          draft.Tags,
			"visibility":    draft.Visibility,
			"category":      draft.Category,
			"thumbnail_url": draft.ThumbnailURL,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("store: update draft: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrDraftNotFound
	}
	return nil
}

// RecordMetric inserts an append-only metric event. Callers must not fail
// the triggering request if this returns an error; it is instrumentation,
// not authoritative state.
func (s *Store) RecordMetric(ctx context.Context, metric *models.UploadMetric) error {
	if err := s.db.WithContext(ctx).Create(metric).Error; err != nil {
		return fmt.Errorf("store: record metric: %w", err)
	}
	return nil
}
