package upload

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/config"
)

// Receipt ties a finished upload attempt to its progress record and the
// provider's result.
type Receipt struct {
	RecordID string  `json:"recordId"`
	Result   *Result `json:"result"`
}

// Service routes uploads onto the simple or chunked path, keeps the
// progress store honest, and records completed uploads in the catalog.
type Service struct {
	cfg          *config.Config
	orchestrator *Orchestrator
	simple       *SimpleUploader
	progress     *ProgressStore
	sessions     SessionRegistry
	repo         Repository
	log          zerolog.Logger
}

func NewService(cfg *config.Config, orchestrator *Orchestrator, simple *SimpleUploader, progress *ProgressStore, sessions SessionRegistry, repo Repository, log zerolog.Logger) *Service {
	return &Service{
		cfg:          cfg,
		orchestrator: orchestrator,
		simple:       simple,
		progress:     progress,
		sessions:     sessions,
		repo:         repo,
		log:          log.With().Str("component", "upload-service").Logger(),
	}
}

// Upload moves one file into storage, choosing the simple path for files
// at or below the chunked threshold. Every failure lands the progress
// record in a terminal, explained state before the error surfaces, so
// observers never see a record stuck in Uploading.
func (s *Service) Upload(ctx context.Context, file ByteRangeReadable, meta FileMeta) (*Receipt, error) {
	return s.run(ctx, file, meta, false)
}

// UploadChunked forces the resumable path regardless of file size.
func (s *Service) UploadChunked(ctx context.Context, file ByteRangeReadable, meta FileMeta) (*Receipt, error) {
	return s.run(ctx, file, meta, true)
}

func (s *Service) run(ctx context.Context, file ByteRangeReadable, meta FileMeta, forceChunked bool) (*Receipt, error) {
	if file == nil {
		return nil, NewInvalidArgument("upload source is required")
	}
	if meta.Size == 0 {
		meta.Size = file.Len()
	}
	if s.cfg.MaxUploadBytes > 0 && meta.Size > s.cfg.MaxUploadBytes {
		return nil, NewInvalidArgument("file exceeds the maximum upload size")
	}

	recordID := s.progress.Add(meta.Name, meta.Size)
	onProgress := func(pct int) {
		s.progress.UpdateProgress(recordID, pct)
	}

	var result *Result
	var err error
	if !forceChunked && meta.Size <= s.cfg.SimpleThreshold {
		result, err = s.simple.Upload(ctx, file, meta, onProgress)
	} else {
		result, err = s.orchestrator.Upload(ctx, file, meta, onProgress)
	}

	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.Canceled) {
			status = StatusCancelled
		}
		s.progress.SetStatus(recordID, status, err.Error())
		s.log.Error().Err(err).Str("record_id", recordID).Str("file", meta.Name).Msg("upload failed")
		return nil, err
	}

	s.progress.Complete(recordID, result)
	s.persistCatalogRecord(ctx, recordID, meta, result)

	return &Receipt{RecordID: recordID, Result: result}, nil
}

// InitiateSession opens a resumable session for a client that will drive
// the chunk PUTs itself against the bearer-capability endpoint.
func (s *Service) InitiateSession(ctx context.Context, meta FileMeta) (*Session, error) {
	return s.orchestrator.Initiate(ctx, meta)
}

// LookupSession resolves an uploadId recorded at initiation time.
func (s *Service) LookupSession(id string) (Session, bool) {
	if s.sessions == nil {
		return Session{}, false
	}
	return s.sessions.Get(id)
}

// Progress exposes the observer-visible store.
func (s *Service) Progress() *ProgressStore {
	return s.progress
}

// GetFile returns one catalog record of a completed upload.
func (s *Service) GetFile(ctx context.Context, id string) (*VideoFile, error) {
	if s.repo == nil {
		return nil, errors.New("catalog persistence is not configured")
	}
	return s.repo.GetByID(ctx, id)
}

// ListFiles returns recent catalog records, newest first.
func (s *Service) ListFiles(ctx context.Context, limit int) ([]*VideoFile, error) {
	if s.repo == nil {
		return nil, errors.New("catalog persistence is not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

// persistCatalogRecord best-effort records the completed upload. The
// provider already holds the bytes, so a catalog write failure is logged
// rather than failing the upload.
func (s *Service) persistCatalogRecord(ctx context.Context, recordID string, meta FileMeta, result *Result) {
	if s.repo == nil || result == nil {
		return
	}
	size := result.Size
	if size == 0 {
		size = meta.Size
	}
	mime := result.MimeType
	if mime == "" {
		mime = meta.MimeType
	}
	record := &VideoFile{
		ID:             recordID,
		FileID:         result.FileID,
		FileName:       result.FileName,
		MimeType:       mime,
		Bytes:          size,
		WebViewLink:    result.WebViewLink,
		WebContentLink: result.WebContentLink,
	}
	if record.FileName == "" {
		record.FileName = meta.Name
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.log.Warn().Err(err).Str("file_id", result.FileID).Msg("record completed upload in catalog")
	}
}
