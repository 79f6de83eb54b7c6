// Package file persists the catalog of completed uploads.
package file

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/database/entities"
)

// ErrNotFound is returned when no catalog record matches the id.
var ErrNotFound = errors.New("video file not found")

// Repository handles video file persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, f *upload.VideoFile) error {
	entity := entities.VideoFile{
		ID:             f.ID,
		FileID:         f.FileID,
		FileName:       f.FileName,
		MimeType:       f.MimeType,
		Bytes:          f.Bytes,
		WebViewLink:    f.WebViewLink,
		WebContentLink: f.WebContentLink,
		CreatedBy:      f.CreatedBy,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("create video file record: %w", err)
	}
	f.CreatedAt = entity.CreatedAt
	f.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*upload.VideoFile, error) {
	var entity entities.VideoFile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get video file by id: %w", err)
	}
	file := mapEntity(entity)
	return &file, nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]*upload.VideoFile, error) {
	var rows []entities.VideoFile
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list video files: %w", err)
	}
	files := make([]*upload.VideoFile, 0, len(rows))
	for _, row := range rows {
		file := mapEntity(row)
		files = append(files, &file)
	}
	return files, nil
}

func mapEntity(entity entities.VideoFile) upload.VideoFile {
	return upload.VideoFile{
		ID:             entity.ID,
		FileID:         entity.FileID,
		FileName:       entity.FileName,
		MimeType:       entity.MimeType,
		Bytes:          entity.Bytes,
		WebViewLink:    entity.WebViewLink,
		WebContentLink: entity.WebContentLink,
		CreatedBy:      entity.CreatedBy,
		CreatedAt:      entity.CreatedAt,
		UpdatedAt:      entity.UpdatedAt,
	}
}
