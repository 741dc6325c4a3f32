package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/reelverse/upload-service/internal/httpapi"
	"github.com/reelverse/upload-service/internal/httpapi/auth"
	"github.com/reelverse/upload-service/internal/logger"
	"github.com/reelverse/upload-service/pkg/config"
	"github.com/reelverse/upload-service/pkg/metrics"
	"github.com/reelverse/upload-service/pkg/upload/jobs"
	"github.com/reelverse/upload-service/pkg/upload/objectstore"
	"github.com/reelverse/upload-service/pkg/upload/reaper"
	"github.com/reelverse/upload-service/pkg/upload/service"
	"github.com/reelverse/upload-service/pkg/upload/store"

	// Import prometheus metrics to register init() functions.
	_ "github.com/reelverse/upload-service/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload service",
	Long: `Start the upload-service HTTP server.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/upload-service/config.yaml.

Examples:
  # Start with default config
  upload-service serve

  # Start with custom config
  upload-service serve --config /etc/upload-service/config.yaml

  # Override config with environment variables
  UPLOAD_LOGGING_LEVEL=DEBUG upload-service serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("upload-service starting",
		"version", Version,
		"log_level", cfg.Logging.Level,
		"config_source", getConfigSource(GetConfigFile()))

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: promhttp.Handler(),
		}
		go func() {
			logger.Info("metrics server listening", "port", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", logger.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	} else {
		logger.Info("metrics collection disabled")
	}

	sessions, err := store.New(store.Config{
		Driver:       store.Driver(cfg.Database.Driver),
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	objects, err := objectstore.New(ctx, objectstore.Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Metrics:         metrics.NewObjectStoreMetrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	dispatcher := jobs.New(completionHandler, jobs.Config{})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	svc := service.New(sessions, objects, dispatcher, store.AppendPart, service.Config{
		MaxUploadBytes:   int64(cfg.Upload.MaxBytes),
		AllowedMimeTypes: cfg.Upload.AllowedMimeTypes,
		SessionTTL:       cfg.Upload.SessionTTL,
		ChunkDeadline:    cfg.Server.ChunkDeadline,
	})

	sessionReaper := reaper.New(sessions, objects, reaper.Config{SweepInterval: cfg.Reaper.Interval})
	sessionReaper.Start(ctx)
	defer sessionReaper.Stop()

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: cfg.Auth.JWTSecret, Issuer: "upload-service"})
	if err != nil {
		return fmt.Errorf("failed to create JWT service: %w", err)
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Service:       svc,
		JWTService:    jwtService,
		Sessions:      sessions,
		Objects:       objects,
		BaseURL:       cfg.Server.BaseURL,
		RateLimit:     cfg.RateLimit,
		ChunkDeadline: cfg.Server.ChunkDeadline,
	})

	server := httpapi.NewServer(cfg.Server, router)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("upload service is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("upload service stopped gracefully")
	return nil
}

// completionHandler is the default job handler: it has nowhere real to send
// completed uploads, so it just logs. A production deployment replaces this
// with a call into the transcode-and-pin pipeline.
func completionHandler(ctx context.Context, job service.CompletionJob) error {
	logger.Info("upload completed",
		logger.SessionID(job.SessionID),
		logger.UserID(job.UserID),
		logger.StorageKey(job.StorageKey),
		logger.TotalBytes(job.TotalBytes))
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
