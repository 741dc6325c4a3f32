// Package models defines the persisted record types for the upload session
// engine: UploadSession, its Parts, ContentDraft, and UploadMetric.
package models

import (
	"encoding/json"
	"time"
)

// Status is the upload session lifecycle state.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusPlayable   Status = "playable"
	StatusHDReady    Status = "hd_ready"
	StatusFailed     Status = "failed"
	StatusAborted    Status = "aborted"
)

// Part is one chunk that has been successfully stored in the object store.
type Part struct {
	PartNumber int       `json:"partNumber"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Parts is the ordered, JSON-columned collection of Part records belonging
// to a session. GORM stores it as a single JSON text column through
// UploadSession.PartsJSON, encoded by SetParts and decoded by Parts.
type Parts []Part

// BytesSum returns the sum of all part sizes.
func (p Parts) BytesSum() int64 {
	var total int64
	for _, part := range p {
		total += part.Size
	}
	return total
}

// Has reports whether partNumber is already present.
func (p Parts) Has(partNumber int) bool {
	for _, part := range p {
		if part.PartNumber == partNumber {
			return true
		}
	}
	return false
}

// UploadSession is the authoritative per-upload record described in the data
// model: the single row mutated, under a row lock, by every chunk PUT.
type UploadSession struct {
	ID              string `gorm:"primaryKey;size:64"`
	UserID          string `gorm:"size:128;not null;uniqueIndex:idx_user_idempotency,priority:1;index:idx_user_id"`
	Filename        string `gorm:"size:255;not null"`
	MimeType        string `gorm:"size:255;not null"`
	TotalBytes      int64  `gorm:"not null"`
	ChunkSize       int64  `gorm:"not null"`
	StorageKey      string `gorm:"size:1024;not null"`
	StorageUploadID string `gorm:"size:255;not null"`
	BytesReceived   int64  `gorm:"not null;default:0"`
	PartsJSON       string `gorm:"column:parts;type:text;not null;default:'[]'"`
	Status          Status `gorm:"size:32;not null;index"`
	IdempotencyKey  *string `gorm:"size:255;uniqueIndex:idx_user_idempotency,priority:2"`
	ErrorCode       *string `gorm:"size:128"`
	CID             *string `gorm:"size:255"`
	PinStatus       *string `gorm:"size:64"`
	PlaybackURL     *string `gorm:"size:1024"`
	ExpiresAt       time.Time `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName pins the GORM table name independent of struct renames.
func (UploadSession) TableName() string { return "upload_sessions" }

// Parts decodes the JSON parts column. Callers in the service/store layer
// always go through this accessor rather than touching PartsJSON directly.
func (s *UploadSession) Parts() Parts {
	if s.PartsJSON == "" {
		return nil
	}
	var parts Parts
	if err := json.Unmarshal([]byte(s.PartsJSON), &parts); err != nil {
		return nil
	}
	return parts
}

// SetParts encodes parts back into the JSON column.
func (s *UploadSession) SetParts(parts Parts) error {
	b, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	s.PartsJSON = string(b)
	return nil
}

// Progress returns completion percentage in [0, 100].
func (s *UploadSession) Progress() float64 {
	if s.TotalBytes == 0 {
		return 0
	}
	return float64(s.BytesReceived) / float64(s.TotalBytes) * 100
}

// ContentDraft is the optional, opaque metadata sibling of a session.
type ContentDraft struct {
	ID           string `gorm:"primaryKey;size:64"`
	UploadID     string `gorm:"index;size:64;not null"`
	UserID       string `gorm:"index;size:128;not null"`
	Title        string `gorm:"size:255"`
	Description  string `gorm:"type:text"`
	Tags         string `gorm:"type:text"` // comma-joined; the core treats this as opaque
	Visibility   string `gorm:"size:32"`
	Category     string `gorm:"size:64"`
	ThumbnailURL string `gorm:"size:1024"`
	UpdatedAt    time.Time
}

func (ContentDraft) TableName() string { return "content_drafts" }

// UploadMetric is an append-only event row. Writes are fire-and-forget: a
// failure here must never fail the upload request that triggered it.
type UploadMetric struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	UploadID         string `gorm:"index;size:64;not null"`
	UserID           string `gorm:"index;size:128;not null"`
	EventType        string `gorm:"size:64;not null"`
	ChunkNumber      *int
	ChunkSizeBytes   *int64
	ProcessingTimeMs *int64
	ErrorCode        *string `gorm:"size:128"`
	ClientIP         string  `gorm:"size:64"`
	UserAgent        string  `gorm:"size:512"`
	MetadataJSON     string  `gorm:"column:metadata;type:text"`
	CreatedAt        time.Time `gorm:"index"`
}

func (UploadMetric) TableName() string { return "upload_metrics" }

// AllModels returns every GORM model for auto-migration, mirroring the
// teacher's models.AllModels convention.
func AllModels() []any {
	return []any{
		&UploadSession{},
		&ContentDraft{},
		&UploadMetric{},
	}
}
