package handlers

import (
	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/upload"
)

// Provider wires HTTP handlers.
type Provider struct {
	Upload   *UploadHandler
	Progress *ProgressHandler
	File     *FileHandler
}

func NewProvider(cfg *config.Config, service *upload.Service, store upload.ObjectStore, log zerolog.Logger) *Provider {
	return &Provider{
		Upload:   NewUploadHandler(cfg, service, log),
		Progress: NewProgressHandler(service.Progress(), log),
		File:     NewFileHandler(service, store, log),
	}
}
