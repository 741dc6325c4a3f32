// Package httpapi wires the chi router, middleware stack, and HTTP server
// lifecycle around the upload handlers.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reelverse/upload-service/internal/httpapi/auth"
	"github.com/reelverse/upload-service/internal/httpapi/handlers"
	apimiddleware "github.com/reelverse/upload-service/internal/httpapi/middleware"
	"github.com/reelverse/upload-service/internal/logger"
	"github.com/reelverse/upload-service/pkg/config"
	"github.com/reelverse/upload-service/pkg/upload/service"
)

// RouterConfig bundles everything NewRouter needs to assemble routes.
type RouterConfig struct {
	Service       *service.Service
	JWTService    *auth.JWTService
	Sessions      handlers.HealthChecker
	Objects       handlers.HealthChecker
	BaseURL       string
	RateLimit     config.RateLimitConfig
	ChunkDeadline time.Duration
}

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/stores - Detailed store health
//   - POST /uploads - Create a resumable upload session
//   - DELETE /uploads/{id} - Abort a session
//   - GET /uploads/{id}/status - Poll session progress
//   - PUT /uploads/{id}/draft - Update draft metadata
//   - PUT /uploads/{id} - Upload a chunk, or probe status with an empty body
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(cfg.Sessions, cfg.Objects)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/stores", healthHandler.Stores)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	sessionHandler := handlers.NewSessionHandler(cfg.Service, cfg.BaseURL)
	chunkHandler := handlers.NewChunkHandler(cfg.Service)

	createLimiter := apimiddleware.RateLimit(apimiddleware.RateLimitConfig{
		Requests: cfg.RateLimit.CreatePerHour,
		Window:   time.Hour,
	})
	chunkLimiter := apimiddleware.RateLimit(apimiddleware.RateLimitConfig{
		Requests: cfg.RateLimit.ChunkPerMinute,
		Window:   time.Minute,
	})

	r.Route("/uploads", func(r chi.Router) {
		r.Use(apimiddleware.JWTAuth(cfg.JWTService))

		r.Group(func(r chi.Router) {
			r.Use(createLimiter)
			r.Post("/", sessionHandler.Create)
		})

		r.Delete("/{id}", sessionHandler.Abort)
		r.Get("/{id}/status", sessionHandler.Status)
		r.Put("/{id}/draft", sessionHandler.Draft)

		r.Group(func(r chi.Router) {
			r.Use(chunkLimiter)
			r.Use(apimiddleware.StreamingUpload(cfg.ChunkDeadline))
			r.Put("/{id}", chunkHandler.Put)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the internal
// logger and attaches a logger.LogContext (request ID, client IP) to the
// request context for the rest of the handler chain. The {id} URL parameter
// is only resolved once routing has run, so the session ID is added for the
// completion log line.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		lc := logger.NewLogContext(r.RemoteAddr).WithRequestID(requestID)
		ctx := logger.WithContext(r.Context(), lc)
		r = r.WithContext(ctx)

		logger.DebugCtx(ctx, "API request started",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		if id := chi.URLParam(r, "id"); id != "" {
			lc = lc.WithSession(id)
			ctx = logger.WithContext(ctx, lc)
		}

		logArgs := []any{
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			logger.Bytes(ww.BytesWritten()),
			logger.DurationMs(lc.DurationMs()),
		}

		if isHealthPath(r.URL.Path) {
			logger.DebugCtx(ctx, "API request completed", logArgs...)
		} else {
			logger.InfoCtx(ctx, "API request completed", logArgs...)
		}
	})
}
