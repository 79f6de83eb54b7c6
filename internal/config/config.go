package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const chunkSizeQuantum = 256 * 1024

// Config holds the environment driven configuration for the upload service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"upload-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"UPLOAD_API_PORT" envDefault:"8290"`
	LogLevel        string        `env:"UPLOAD_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database - Read/Write Split
	DBPostgresqlWriteDSN string `env:"DB_POSTGRESQL_WRITE_DSN"`
	DBPostgresqlRead1DSN string `env:"DB_POSTGRESQL_READ1_DSN"` // Optional read replica

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Chunked Transfer Configuration
	ChunkSize       int64         `env:"UPLOAD_CHUNK_SIZE" envDefault:"8388608"`
	SimpleThreshold int64         `env:"UPLOAD_SIMPLE_THRESHOLD" envDefault:"5242880"`
	MaxChunkRetries int           `env:"UPLOAD_MAX_CHUNK_RETRIES" envDefault:"3"`
	RetryBaseDelay  time.Duration `env:"UPLOAD_RETRY_BASE_DELAY" envDefault:"500ms"`
	RetryMaxDelay   time.Duration `env:"UPLOAD_RETRY_MAX_DELAY" envDefault:"30s"`
	MaxUploadBytes  int64         `env:"UPLOAD_MAX_BYTES" envDefault:"5368709120"`

	// Upload Session Retention
	SessionRetention     time.Duration `env:"UPLOAD_SESSION_RETENTION" envDefault:"24h"`
	SessionSweepInterval time.Duration `env:"UPLOAD_SESSION_SWEEP_INTERVAL" envDefault:"10m"`

	// Storage Provider (resumable protocol)
	DriveUploadBaseURL string        `env:"DRIVE_UPLOAD_BASE_URL" envDefault:"https://www.googleapis.com/upload/drive/v3/files"`
	DriveAPIBaseURL    string        `env:"DRIVE_API_BASE_URL" envDefault:"https://www.googleapis.com/drive/v3"`
	DriveFolderID      string        `env:"DRIVE_FOLDER_ID"`
	DriveCORSOrigin    string        `env:"DRIVE_CORS_ORIGIN"`
	DriveTimeout       time.Duration `env:"DRIVE_HTTP_TIMEOUT" envDefault:"60s"`

	// Provider Credentials
	DriveAccessToken  string `env:"DRIVE_ACCESS_TOKEN"`
	DriveTokenURL     string `env:"DRIVE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	DriveClientID     string `env:"DRIVE_CLIENT_ID"`
	DriveClientSecret string `env:"DRIVE_CLIENT_SECRET"`
	DriveRefreshToken string `env:"DRIVE_REFRESH_TOKEN"`

	// Storage Backend Selection for the small-file path
	StorageBackend string `env:"UPLOAD_STORAGE_BACKEND" envDefault:"drive"` // Options: "drive", "s3" or "local"

	// Local Storage Configuration
	LocalStoragePath    string `env:"UPLOAD_LOCAL_STORAGE_PATH"`
	LocalStorageBaseURL string `env:"UPLOAD_LOCAL_STORAGE_BASE_URL"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"UPLOAD_S3_ENDPOINT"`
	S3Region       string `env:"UPLOAD_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"UPLOAD_S3_BUCKET"`
	S3AccessKeyID  string `env:"UPLOAD_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"UPLOAD_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"UPLOAD_S3_USE_PATH_STYLE" envDefault:"true"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	Account     string `env:"ACCOUNT"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.DriveUploadBaseURL = strings.TrimSpace(cfg.DriveUploadBaseURL)
	cfg.DriveAPIBaseURL = strings.TrimSpace(cfg.DriveAPIBaseURL)
	cfg.DriveAccessToken = strings.TrimSpace(cfg.DriveAccessToken)
	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 8 * 1024 * 1024
	}
	// The provider rejects chunk lengths that are not multiples of 256 KiB,
	// except for the final chunk of a file.
	if cfg.ChunkSize%chunkSizeQuantum != 0 {
		return nil, fmt.Errorf("UPLOAD_CHUNK_SIZE must be a multiple of %d bytes, got %d", chunkSizeQuantum, cfg.ChunkSize)
	}
	if cfg.SimpleThreshold < 0 {
		cfg.SimpleThreshold = 0
	}
	if cfg.MaxChunkRetries < 1 {
		cfg.MaxChunkRetries = 1
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// GetDatabaseWriteDSN returns the write database connection string.
func (c *Config) GetDatabaseWriteDSN() string {
	return c.DBPostgresqlWriteDSN
}

// GetDatabaseReadDSN returns the read database connection string.
// Falls back to the write DSN when no replica is configured.
func (c *Config) GetDatabaseReadDSN() string {
	if c.DBPostgresqlRead1DSN != "" {
		return c.DBPostgresqlRead1DSN
	}
	return c.GetDatabaseWriteDSN()
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if the local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if the S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}

// IsDriveStorage returns true if small files go to the resumable provider.
func (c *Config) IsDriveStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "drive"
}
