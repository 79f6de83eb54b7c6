package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinevault/services/upload-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "upload-api", cfg.ServiceName)
	assert.Equal(t, ":8290", cfg.Addr())
	assert.Equal(t, int64(8*1024*1024), cfg.ChunkSize)
	assert.Equal(t, int64(5*1024*1024), cfg.SimpleThreshold)
	assert.Equal(t, 3, cfg.MaxChunkRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
	assert.True(t, cfg.IsDriveStorage())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("UPLOAD_API_PORT", "9000")
	t.Setenv("UPLOAD_CHUNK_SIZE", "524288")
	t.Setenv("UPLOAD_STORAGE_BACKEND", "s3")
	t.Setenv("UPLOAD_S3_BUCKET", "videos")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, int64(524288), cfg.ChunkSize)
	assert.True(t, cfg.IsS3Storage())
	assert.False(t, cfg.IsDriveStorage())
}

func TestLoadRejectsUnalignedChunkSize(t *testing.T) {
	t.Setenv("UPLOAD_CHUNK_SIZE", "100000")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPLOAD_CHUNK_SIZE")
}

func TestLoadRejectsIncompleteAuthConfig(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")

	_, err := config.Load()
	require.Error(t, err)
}

func TestDatabaseDSNFallback(t *testing.T) {
	t.Setenv("DB_POSTGRESQL_WRITE_DSN", "postgres://localhost/upload")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/upload", cfg.GetDatabaseWriteDSN())
	assert.Equal(t, "postgres://localhost/upload", cfg.GetDatabaseReadDSN())

	t.Setenv("DB_POSTGRESQL_READ1_DSN", "postgres://replica/upload")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://replica/upload", cfg.GetDatabaseReadDSN())
}
