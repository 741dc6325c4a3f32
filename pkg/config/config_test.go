package config

import "testing"

func TestGetDefaultConfigAppliesDefaults(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default log level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Reaper.Interval <= 0 {
		t.Error("expected a positive default reaper interval")
	}
}

func TestValidateRequiresAuthSecret(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Storage.Bucket = "uploads"
	cfg.Storage.Region = "us-east-1"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error with no auth secret configured")
	}

	cfg.Auth.JWTSecret = "this-is-a-sufficiently-long-test-secret-value"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Storage.Bucket = "uploads"
	cfg.Storage.Region = "us-east-1"
	cfg.Auth.JWTSecret = "too-short"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for short jwt secret")
	}
}
