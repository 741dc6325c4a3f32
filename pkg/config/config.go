// Package config loads and validates the upload service's static
// configuration: server, database, object storage, auth, rate limiting, and
// logging. Configuration sources are layered, highest precedence first:
//
//  1. Environment variables (UPLOAD_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/reelverse/upload-service/internal/bytesize"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the upload service.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Upload    UploadConfig    `mapstructure:"upload" yaml:"upload"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Reaper    ReaperConfig    `mapstructure:"reaper" yaml:"reaper"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig controls the HTTP listener and its shutdown behavior.
type ServerConfig struct {
	// Address is the host:port the HTTP server binds to.
	Address string `mapstructure:"address" validate:"required" yaml:"address"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// ChunkDeadline bounds how long a single chunk PUT may run before the
	// request is cancelled.
	ChunkDeadline time.Duration `mapstructure:"chunk_deadline" validate:"required,gt=0" yaml:"chunk_deadline"`

	// BaseURL is the externally-reachable origin used to build the
	// sessionUrl returned from session creation, e.g. "https://upload.example.com".
	BaseURL string `mapstructure:"base_url" validate:"required" yaml:"base_url"`
}

// DatabaseConfig configures the session store's backing database.
type DatabaseConfig struct {
	// Driver selects the backend: "sqlite" or "postgres".
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres" yaml:"driver"`

	// DSN is the driver-specific connection string. For sqlite this is a file
	// path (or ":memory:"); for postgres, a libpq connection string.
	DSN string `mapstructure:"dsn" validate:"required" yaml:"dsn"`

	// MaxOpenConns and MaxIdleConns tune the postgres connection pool; ignored
	// for sqlite.
	MaxOpenConns int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// StorageConfig configures the S3-compatible object store backing uploads.
type StorageConfig struct {
	Bucket          string `mapstructure:"bucket" validate:"required" yaml:"bucket"`
	Region          string `mapstructure:"region" validate:"required" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// AuthConfig configures bearer-token verification. Token issuance is out of
// scope: this service only validates tokens minted elsewhere.
type AuthConfig struct {
	// JWTSecret is the HMAC secret used to verify tokens. Required unless
	// JWTPublicKeyPath is set.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret,omitempty"`

	// JWTPublicKeyPath, when set, selects RSA/ECDSA verification instead of
	// HMAC. Not yet implemented by the reference JWT service; reserved.
	JWTPublicKeyPath string `mapstructure:"jwt_public_key_path" yaml:"jwt_public_key_path,omitempty"`
}

// UploadConfig bounds what the upload session engine accepts.
type UploadConfig struct {
	// MaxBytes is the largest TotalBytes a CreateSession request may declare.
	// Supports human-readable sizes: "5GB", "500Mi".
	MaxBytes bytesize.ByteSize `mapstructure:"max_bytes" yaml:"max_bytes"`

	// AllowedMimeTypes is the upload MIME type allow-list. Empty means no
	// restriction.
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types" yaml:"allowed_mime_types,omitempty"`

	// SessionTTL is how long after creation a session remains resumable
	// before the reaper aborts it (ExpiresAt = creation time + SessionTTL;
	// chunk activity does not extend it).
	SessionTTL time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`

	// StaleThreshold is how long a session may receive no chunks before it is
	// considered abandoned by the reaper, independent of SessionTTL.
	StaleThreshold time.Duration `mapstructure:"stale_threshold" yaml:"stale_threshold"`
}

// RateLimitConfig controls the per-user request throttles.
type RateLimitConfig struct {
	// CreatePerHour caps CreateSession calls per user per hour.
	CreatePerHour int `mapstructure:"create_per_hour" validate:"gte=0" yaml:"create_per_hour"`

	// ChunkPerMinute caps chunk PUT calls per user per minute.
	ChunkPerMinute int `mapstructure:"chunk_per_minute" validate:"gte=0" yaml:"chunk_per_minute"`
}

// ReaperConfig controls the background sweep for expired/stale sessions.
type ReaperConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"required,gt=0" yaml:"interval"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  upload-service init\n\n"+
				"Or specify a custom config file:\n"+
				"  upload-service serve --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  upload-service init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("UPLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path, honoring
// XDG_CONFIG_HOME and falling back to ~/.config, then ".".
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "upload-service")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "upload-service")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
