package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/domain/upload"
	filerepo "cinevault/services/upload-api/internal/infrastructure/repository/file"
)

// CatalogService is the surface of the catalog the handler needs.
type CatalogService interface {
	GetFile(ctx context.Context, id string) (*upload.VideoFile, error)
	ListFiles(ctx context.Context, limit int) ([]*upload.VideoFile, error)
}

// FileHandler exposes the catalog of completed uploads.
type FileHandler struct {
	service CatalogService
	store   upload.ObjectStore
	log     zerolog.Logger
}

func NewFileHandler(service CatalogService, store upload.ObjectStore, log zerolog.Logger) *FileHandler {
	return &FileHandler{
		service: service,
		store:   store,
		log:     log.With().Str("component", "file-handler").Logger(),
	}
}

// Get godoc
// @Summary      Get a catalog record
// @Tags         files
// @Produce      json
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  upload.VideoFile
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /v1/files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.service.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, filerepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.log.Error().Err(err).Msg("get file failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load file"})
		return
	}
	c.JSON(http.StatusOK, file)
}

// List godoc
// @Summary      List catalog records
// @Tags         files
// @Produce      json
// @Param        limit  query     int  false  "Max records (default 50)"
// @Success      200    {array}   upload.VideoFile
// @Security     ApiKeyAuth
// @Router       /v1/files [get]
func (h *FileHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	files, err := h.service.ListFiles(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list files failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}
	c.JSON(http.StatusOK, files)
}

// Download godoc
// @Summary      Stream a stored file's content
// @Tags         files
// @Produce      octet-stream
// @Param        id   path      string  true  "Record id"
// @Success      200  {file}    file
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /v1/files/{id}/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	file, err := h.service.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, filerepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.log.Error().Err(err).Msg("download lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load file"})
		return
	}

	body, contentType, err := h.store.Get(c.Request.Context(), file.FileID)
	if err != nil {
		h.log.Error().Err(err).Str("file_id", file.FileID).Msg("download failed")
		c.JSON(upload.HTTPStatus(err), gin.H{"error": "failed to download file"})
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = file.MimeType
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.DataFromReader(http.StatusOK, file.Bytes, contentType, body, nil)
}
