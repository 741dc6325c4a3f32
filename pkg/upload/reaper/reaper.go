// Package reaper periodically sweeps expired or stale upload sessions,
// aborting their multipart uploads and marking them aborted so storage isn't
// held open by clients that vanished mid-upload.
package reaper

import (
	"context"
	"sync"
	"time"

	"github.com/reelverse/upload-service/internal/logger"
	"github.com/reelverse/upload-service/pkg/upload/models"
)

const (
	defaultSweepInterval = time.Minute
	expiredErrorCode     = "expired"
)

// SessionStore is the subset of the store this package depends on.
type SessionStore interface {
	ListStale(ctx context.Context, staleBefore time.Time) ([]models.UploadSession, error)
	SetStatus(ctx context.Context, id string, status models.Status, errorCode *string) error
}

// ObjectStore is the subset of the multipart adapter this package depends on.
type ObjectStore interface {
	AbortMultipart(ctx context.Context, key, uploadID string) error
}

// Config bounds the sweep cadence.
type Config struct {
	// SweepInterval is how often to scan for stale sessions. Default 1m.
	SweepInterval time.Duration
}

// Reaper runs the periodic stale-session sweep. Safe to run concurrently
// with chunk PUTs on other sessions: it only ever touches sessions it finds
// via ListStale, under the same row lock every other mutation uses.
type Reaper struct {
	sessions      SessionStore
	objects       ObjectStore
	sweepInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Reaper. It will not run until Start is called.
func New(sessions SessionStore, objects ObjectStore, cfg Config) *Reaper {
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	return &Reaper{
		sessions:      sessions,
		objects:       objects,
		sweepInterval: sweepInterval,
	}
}

// Start launches the sweep loop. It runs until Stop is called or ctx is
// cancelled.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run(ctx)
}

// Stop gracefully stops the sweep loop and blocks until it has exited.
func (r *Reaper) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one pass immediately: it reaps every session ListStale reports
// as of now. Exposed so tests and an operator-triggered manual sweep don't
// have to wait on the ticker.
func (r *Reaper) Sweep(ctx context.Context) {
	stale, err := r.sessions.ListStale(ctx, time.Now())
	if err != nil {
		logger.Error("reaper: failed to list stale sessions", logger.Err(err))
		return
	}

	for _, session := range stale {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := r.reap(ctx, session); err != nil {
			logger.Warn("reaper: failed to reap session", logger.SessionID(session.ID), logger.Err(err))
		}
	}
}

func (r *Reaper) reap(ctx context.Context, session models.UploadSession) error {
	if err := r.objects.AbortMultipart(ctx, session.StorageKey, session.StorageUploadID); err != nil {
		return err
	}

	errorCode := expiredErrorCode
	if err := r.sessions.SetStatus(ctx, session.ID, models.StatusAborted, &errorCode); err != nil {
		return err
	}

	logger.Info("reaper: aborted stale session", logger.SessionID(session.ID), logger.UserID(session.UserID))
	return nil
}
