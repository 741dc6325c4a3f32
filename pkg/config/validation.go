package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate runs struct-tag validation over cfg and adds a few cross-field
// checks the tags can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWTPublicKeyPath == "" {
		return fmt.Errorf("auth: one of jwt_secret or jwt_public_key_path is required")
	}
	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth: jwt_secret must be at least 32 characters")
	}

	return nil
}
