// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port     string `env:"PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Object storage (any S3-compatible backend, MinIO locally)
	StorageDriver    string `env:"STORAGE_DRIVER" envDefault:"minio"` // "minio" or "memory"
	StorageEndpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost"`
	StoragePort      int    `env:"MINIO_PORT" envDefault:"9000"`
	StorageUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	StorageAccessKey string `env:"MINIO_ACCESS_KEY"`
	StorageSecretKey string `env:"MINIO_SECRET_KEY"`
	StorageBucket    string `env:"MINIO_BUCKET" envDefault:"images"`

	// Uploads
	UploadDir       string `env:"UPLOAD_DIR"`
	MaxUploadBytes  int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	ThumbnailWidth  int    `env:"THUMBNAIL_WIDTH" envDefault:"200"`
	ThumbnailHeight int    `env:"THUMBNAIL_HEIGHT" envDefault:"200"`

	// Optional bearer-token verification on /media
	JWTSecret    string `env:"JWT_SECRET"`
	AuthRequired bool   `env:"AUTH_REQUIRED" envDefault:"false"`
}

// Load reads configuration from a .env file (if present) and environment variables.
// A .env file that exists but cannot be parsed is an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.StorageBucket == "" {
		errs = append(errs, errors.New("MINIO_BUCKET must not be empty"))
	}
	if c.StorageDriver != "minio" && c.StorageDriver != "memory" {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be minio or memory (got %q)", c.StorageDriver))
	}
	if c.ThumbnailWidth <= 0 || c.ThumbnailHeight <= 0 {
		errs = append(errs, fmt.Errorf("thumbnail box must be positive (got %dx%d)", c.ThumbnailWidth, c.ThumbnailHeight))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive (got %d)", c.MaxUploadBytes))
	}
	if c.AuthRequired && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when AUTH_REQUIRED=true"))
	}
	return errors.Join(errs...)
}

// StorageAddr returns the host:port pair of the object storage endpoint.
func (c *Config) StorageAddr() string {
	return net.JoinHostPort(c.StorageEndpoint, strconv.Itoa(c.StoragePort))
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
