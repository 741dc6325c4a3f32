package reaper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/reelverse/upload-service/pkg/upload/models"
)

type fakeStore struct {
	mu       sync.Mutex
	stale    []models.UploadSession
	statuses map[string]models.Status
}

func (f *fakeStore) ListStale(ctx context.Context, staleBefore time.Time) ([]models.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stale, nil
}

func (f *fakeStore) SetStatus(ctx context.Context, id string, status models.Status, errorCode *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses == nil {
		f.statuses = make(map[string]models.Status)
	}
	f.statuses[id] = status
	return nil
}

type fakeObjects struct {
	mu      sync.Mutex
	aborted []string
}

func (f *fakeObjects) AbortMultipart(ctx context.Context, key, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = append(f.aborted, key)
	return nil
}

func TestNewDefaultSweepInterval(t *testing.T) {
	r := New(&fakeStore{}, &fakeObjects{}, Config{})
	if r.sweepInterval != defaultSweepInterval {
		t.Errorf("sweepInterval = %v, want %v", r.sweepInterval, defaultSweepInterval)
	}
}

func TestSweepAbortsStaleSessions(t *testing.T) {
	store := &fakeStore{stale: []models.UploadSession{
		{ID: "s1", UserID: "u1", StorageKey: "uploads/u1/s1/a.mp4", StorageUploadID: "up1"},
		{ID: "s2", UserID: "u2", StorageKey: "uploads/u2/s2/b.mp4", StorageUploadID: "up2"},
	}}
	objects := &fakeObjects{}
	r := New(store, objects, Config{SweepInterval: time.Hour})

	r.Sweep(context.Background())

	if len(objects.aborted) != 2 {
		t.Fatalf("expected 2 aborts, got %d", len(objects.aborted))
	}
	if store.statuses["s1"] != models.StatusAborted || store.statuses["s2"] != models.StatusAborted {
		t.Errorf("expected both sessions aborted, got %+v", store.statuses)
	}
}

func TestStartStopRunsSweepLoop(t *testing.T) {
	store := &fakeStore{stale: []models.UploadSession{
		{ID: "s1", UserID: "u1", StorageKey: "uploads/u1/s1/a.mp4", StorageUploadID: "up1"},
	}}
	objects := &fakeObjects{}
	r := New(store, objects, Config{SweepInterval: 10 * time.Millisecond})

	r.Start(context.Background())
	defer r.Stop()

	deadline := time.Now().Add(time.Second)
	for len(objects.aborted) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if len(objects.aborted) == 0 {
		t.Fatal("expected the ticker-driven sweep to abort the stale session")
	}
}
