package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// InitConfig writes a default configuration file to the default location,
// generating a random JWT secret for development use. Fails if a file
// already exists there unless force is set.
func InitConfig(force bool) (string, error) {
	return InitConfigToPath(GetDefaultConfigPath(), force)
}

// InitConfigToPath writes a default configuration file to path.
func InitConfigToPath(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	secret, err := generateJWTSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	cfg := GetDefaultConfig()
	cfg.Storage.Bucket = "upload-service-dev"
	cfg.Storage.Region = "us-east-1"
	cfg.Auth.JWTSecret = secret

	if err := SaveConfig(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}

// generateJWTSecret returns a 64-character hex string (32 bytes of entropy),
// matching what an operator would otherwise produce with `openssl rand -hex 32`.
func generateJWTSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
