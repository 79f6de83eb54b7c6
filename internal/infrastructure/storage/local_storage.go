package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/metrics"
)

var errLocalStorageDisabled = errors.New("local storage is not configured; set UPLOAD_LOCAL_STORAGE_PATH to enable")

// LocalStorage stores small uploads on the local filesystem, mostly for
// development and testing.
type LocalStorage struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
	disabled bool
}

func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("UPLOAD_LOCAL_STORAGE_PATH is not set; local storage will be disabled")
		return &LocalStorage{
			log:      logger,
			disabled: true,
		}, nil
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	storage := &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSpace(cfg.LocalStorageBaseURL),
		log:      logger,
	}

	logger.Info().
		Str("path", basePath).
		Str("base_url", storage.baseURL).
		Msg("local storage initialized")

	return storage, nil
}

func (l *LocalStorage) ensureEnabled() error {
	if l.disabled {
		return errLocalStorageDisabled
	}
	return nil
}

func (l *LocalStorage) Put(ctx context.Context, key, name, contentType string, body io.Reader, size int64) (*upload.Result, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("put", "error").Inc()
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	metrics.StorageOperationsTotal.WithLabelValues("put", "success").Inc()

	l.log.Debug().
		Str("key", key).
		Int64("bytes", written).
		Msg("file stored locally")

	return &upload.Result{
		FileID:         key,
		FileName:       name,
		MimeType:       contentType,
		Size:           written,
		WebContentLink: l.contentLink(key, fullPath),
	}, nil
}

func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, "", err
	}

	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found: %s", key)
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(fullPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

func (l *LocalStorage) contentLink(key, fullPath string) string {
	if l.baseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(l.baseURL, "/"), filepath.ToSlash(key))
	}
	return fmt.Sprintf("file://%s", fullPath)
}

// Health checks if the storage directory is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	if l.disabled {
		return nil
	}
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
