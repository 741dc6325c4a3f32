package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheckTimeout bounds how long store health checks may run before the
// probe gives up and reports unhealthy.
const HealthCheckTimeout = 5 * time.Second

// HealthChecker is implemented by any dependency the health handler can
// probe: the session store and the object store both satisfy it.
type HealthChecker interface {
	Healthcheck(ctx context.Context) error
}

// HealthHandler serves the unauthenticated liveness/readiness endpoints.
type HealthHandler struct {
	sessions  HealthChecker
	objects   HealthChecker
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sessions, objects HealthChecker) *HealthHandler {
	return &HealthHandler{
		sessions:  sessions,
		objects:   objects,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health - simple liveness probe. Always succeeds as
// long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"service":    "upload-service",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// StoreHealth represents the health status of a single dependency.
type StoreHealth struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// StoresResponse is the detailed dependency health response.
type StoresResponse struct {
	SessionStore *StoreHealth `json:"session_store,omitempty"`
	ObjectStore  *StoreHealth `json:"object_store,omitempty"`
}

func checkHealth(ctx context.Context, name, typ string, checker HealthChecker) StoreHealth {
	start := time.Now()
	err := checker.Healthcheck(ctx)
	health := StoreHealth{Name: name, Type: typ, Latency: time.Since(start).String()}
	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
	} else {
		health.Status = "healthy"
	}
	return health
}

// Stores handles GET /health/stores - detailed dependency health. Returns
// 200 when every checked dependency is healthy, 503 otherwise.
func (h *HealthHandler) Stores(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	response := StoresResponse{}
	allHealthy := true

	if h.sessions != nil {
		health := checkHealth(ctx, "session-store", "database", h.sessions)
		response.SessionStore = &health
		allHealthy = allHealthy && health.Status == "healthy"
	}

	if h.objects != nil {
		health := checkHealth(ctx, "object-store", "s3", h.objects)
		response.ObjectStore = &health
		allHealthy = allHealthy && health.Status == "healthy"
	}

	if allHealthy {
		WriteJSON(w, http.StatusOK, healthyResponse(response))
	} else {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(response))
	}
}
