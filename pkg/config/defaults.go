package config

import (
	"strings"
	"time"

	"github.com/reelverse/upload-service/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values (0, "", false, nil) are replaced with defaults;
// explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyUploadDefaults(&cfg.Upload)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyReaperDefaults(&cfg.Reaper)
	applyMetricsDefaults(&cfg.Metrics)

	// No defaults for Storage: bucket, region, and credentials must be set
	// explicitly since there is no safe default object store.
}

// GetDefaultConfig returns a Config populated entirely with defaults, used
// when no config file is present.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ChunkDeadline == 0 {
		cfg.ChunkDeadline = 2 * time.Minute
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
}

func applyDatabaseDefaults(cfg *DatabaseConfig) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.DSN == "" && cfg.Driver == "sqlite" {
		cfg.DSN = "upload-service.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	if cfg.Driver == "postgres" {
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 25
		}
		if cfg.MaxIdleConns == 0 {
			cfg.MaxIdleConns = 5
		}
	}
}

func applyUploadDefaults(cfg *UploadConfig) {
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 5 * bytesize.GB
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.StaleThreshold == 0 {
		cfg.StaleThreshold = time.Hour
	}
}

func applyRateLimitDefaults(cfg *RateLimitConfig) {
	if cfg.CreatePerHour == 0 {
		cfg.CreatePerHour = 20
	}
	if cfg.ChunkPerMinute == 0 {
		cfg.ChunkPerMinute = 120
	}
}

func applyReaperDefaults(cfg *ReaperConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}
