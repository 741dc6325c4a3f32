package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeHealthChecker struct {
	err error
}

func (f fakeHealthChecker) Healthcheck(ctx context.Context) error {
	return f.err
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler(fakeHealthChecker{}, fakeHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.Liveness(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected status healthy, got %q", resp.Status)
	}
}

func TestStoresAllHealthy(t *testing.T) {
	h := NewHealthHandler(fakeHealthChecker{}, fakeHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/healthz/stores", nil)
	rr := httptest.NewRecorder()
	h.Stores(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestStoresUnhealthyDependency(t *testing.T) {
	h := NewHealthHandler(fakeHealthChecker{err: errors.New("connection refused")}, fakeHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/healthz/stores", nil)
	rr := httptest.NewRecorder()
	h.Stores(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var resp Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %q", resp.Status)
	}
}
