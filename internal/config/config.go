package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting for the service. Values come from the
// environment, optionally seeded from a .env file in the working directory.
type Config struct {
	Environment string `env:"LARROSA_ENV" env-default:"development"`
	ListenAddr  string `env:"LARROSA_LISTEN_ADDR" env-default:":8080"`
	LogLevel    string `env:"LARROSA_LOG_LEVEL" env-default:"info"`

	DatabaseURL string `env:"LARROSA_PG_DSN"`
	RedisURL    string `env:"LARROSA_REDIS_URL"`

	AllowedOrigins []string `env:"LARROSA_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://127.0.0.1:5500"`

	Auth   AuthConfig
	Upload UploadConfig
	S3     S3Config
	Rate   RateLimitConfig
	Admin  AdminConfig
}

// AuthConfig configures token issuance and verification.
type AuthConfig struct {
	Secret     string `env:"LARROSA_AUTH_SECRET"`
	Algorithm  string `env:"LARROSA_AUTH_ALGORITHM" env-default:"HS256"`
	TTLMinutes int    `env:"LARROSA_ACCESS_TOKEN_TTL_MINUTES" env-default:"30"`
}

// AccessTokenTTL returns the configured token lifetime.
func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// UploadConfig controls vehicle image uploads.
type UploadConfig struct {
	Dir               string   `env:"LARROSA_UPLOAD_DIR" env-default:"static/uploads"`
	MaxFileSize       int64    `env:"LARROSA_MAX_FILE_SIZE" env-default:"10485760"`
	AllowedExtensions []string `env:"LARROSA_ALLOWED_EXTENSIONS" env-default:"jpg,jpeg,png,webp"`
}

// S3Config enables object storage for vehicle images when a bucket is set.
// Endpoint stays empty for AWS proper; set it for MinIO and friends.
type S3Config struct {
	Endpoint  string `env:"LARROSA_S3_ENDPOINT"`
	Region    string `env:"LARROSA_S3_REGION" env-default:"us-east-1"`
	Bucket    string `env:"LARROSA_S3_BUCKET"`
	AccessKey string `env:"LARROSA_S3_ACCESS_KEY"`
	SecretKey string `env:"LARROSA_S3_SECRET_KEY"`
	PublicURL string `env:"LARROSA_S3_PUBLIC_URL"`
}

// Enabled reports whether images should be stored in object storage.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// RateLimitConfig tunes the per-IP token bucket.
type RateLimitConfig struct {
	Burst     int `env:"LARROSA_RATE_BURST" env-default:"20"`
	PerSecond int `env:"LARROSA_RATE_PER_SECOND" env-default:"10"`
}

// AdminConfig provides bootstrap credentials for the createadmin CLI.
type AdminConfig struct {
	Username string `env:"LARROSA_ADMIN_USERNAME" env-default:"admin"`
	Email    string `env:"LARROSA_ADMIN_EMAIL" env-default:"admin@larrosacamiones.com"`
	Password string `env:"LARROSA_ADMIN_PASSWORD"`
}

// Load reads configuration from the environment and an optional .env file.
// Callers that serve traffic should also run Validate; the CLI tools only
// need a subset of the settings.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars always win.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("config: LARROSA_AUTH_SECRET is required")
	}
	if c.Auth.TTLMinutes <= 0 {
		return errors.New("config: access token TTL must be positive")
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New("config: max file size must be positive")
	}
	if c.S3.Enabled() && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return errors.New("config: S3 bucket set without credentials")
	}
	return nil
}
