package handlers

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/metrics"
)

// UploadService is the surface of the upload domain the handler needs.
type UploadService interface {
	Upload(ctx context.Context, file upload.ByteRangeReadable, meta upload.FileMeta) (*upload.Receipt, error)
	UploadChunked(ctx context.Context, file upload.ByteRangeReadable, meta upload.FileMeta) (*upload.Receipt, error)
	InitiateSession(ctx context.Context, meta upload.FileMeta) (*upload.Session, error)
	LookupSession(id string) (upload.Session, bool)
}

// UploadHandler exposes the upload endpoints.
type UploadHandler struct {
	cfg     *config.Config
	service UploadService
	log     zerolog.Logger
}

func NewUploadHandler(cfg *config.Config, service UploadService, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "upload-handler").Logger(),
	}
}

type initRequest struct {
	Name     string `json:"name" binding:"required"`
	Size     int64  `json:"size" binding:"required"`
	MimeType string `json:"mime_type"`
	Origin   string `json:"origin"`
}

type initResponse struct {
	UploadID         string `json:"upload_id"`
	TransferEndpoint string `json:"transfer_endpoint"`
	FileName         string `json:"file_name"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `json:"mime_type"`
}

type uploadResponse struct {
	RecordID       string `json:"record_id"`
	FileID         string `json:"file_id"`
	FileName       string `json:"file_name"`
	Mime           string `json:"mime"`
	Bytes          int64  `json:"bytes"`
	WebViewLink    string `json:"web_view_link,omitempty"`
	WebContentLink string `json:"web_content_link,omitempty"`
}

// Init godoc
// @Summary      Open a resumable upload session
// @Description  Performs the provider handshake and returns the transfer endpoint for client-driven chunk uploads.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      initRequest  true  "Upload session request"
// @Success      200      {object}  initResponse
// @Failure      400      {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /v1/uploads/init [post]
func (h *UploadHandler) Init(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta := upload.FileMeta{
		Name:     req.Name,
		Size:     req.Size,
		MimeType: req.MimeType,
		Origin:   req.Origin,
	}
	if meta.MimeType == "" {
		meta.MimeType = "application/octet-stream"
	}

	session, err := h.service.InitiateSession(c.Request.Context(), meta)
	if err != nil {
		h.handleUploadError(c, err, "initiate upload session")
		return
	}

	c.JSON(http.StatusOK, initResponse{
		UploadID:         session.UploadID,
		TransferEndpoint: session.TransferEndpoint,
		FileName:         session.FileName,
		FileSize:         session.FileSize,
		MimeType:         session.MimeType,
	})
}

// Upload godoc
// @Summary      Upload a file
// @Description  Relays a multipart file to storage, using the resumable protocol for files above the simple-path threshold.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "File content"
// @Success      200   {object}  uploadResponse
// @Failure      400   {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /v1/uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	h.relay(c, h.service.Upload, "simple_or_chunked")
}

// UploadChunked godoc
// @Summary      Upload a file through the resumable protocol
// @Description  Relays a multipart file using chunked transfer regardless of size.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "File content"
// @Success      200   {object}  uploadResponse
// @Failure      400   {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /v1/uploads/chunked [post]
func (h *UploadHandler) UploadChunked(c *gin.Context) {
	h.relay(c, h.service.UploadChunked, "chunked")
}

type relayFunc func(ctx context.Context, file upload.ByteRangeReadable, meta upload.FileMeta) (*upload.Receipt, error)

func (h *UploadHandler) relay(c *gin.Context, send relayFunc, path string) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if h.cfg.MaxUploadBytes > 0 && fileHeader.Size > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the maximum upload size"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		h.log.Error().Err(err).Msg("create spool file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to buffer upload"})
		return
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.ReadFrom(src); err != nil {
		h.log.Error().Err(err).Msg("spool upload to disk")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to buffer upload"})
		return
	}

	file, err := upload.NewOSFile(tmp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to buffer upload"})
		return
	}

	meta := upload.FileMeta{
		Name:     fileHeader.Filename,
		Size:     file.Len(),
		MimeType: detectMimeType(fileHeader.Header.Get("Content-Type"), tmp.Name()),
	}

	metrics.ActiveUploads.Inc()
	receipt, err := send(c.Request.Context(), file, meta)
	metrics.ActiveUploads.Dec()
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(path, "error").Inc()
		h.handleUploadError(c, err, "upload failed")
		return
	}
	metrics.UploadsTotal.WithLabelValues(path, "success").Inc()
	metrics.UploadBytesTotal.WithLabelValues(path).Add(float64(meta.Size))

	result := receipt.Result
	c.JSON(http.StatusOK, uploadResponse{
		RecordID:       receipt.RecordID,
		FileID:         result.FileID,
		FileName:       result.FileName,
		Mime:           result.MimeType,
		Bytes:          result.Size,
		WebViewLink:    result.WebViewLink,
		WebContentLink: result.WebContentLink,
	})
}

// GetSession godoc
// @Summary      Look up an upload session
// @Tags         uploads
// @Produce      json
// @Param        id   path      string  true  "Upload id"
// @Success      200  {object}  initResponse
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /v1/uploads/sessions/{id} [get]
func (h *UploadHandler) GetSession(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	session, ok := h.service.LookupSession(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "upload session not found"})
		return
	}
	c.JSON(http.StatusOK, initResponse{
		UploadID:         session.UploadID,
		TransferEndpoint: session.TransferEndpoint,
		FileName:         session.FileName,
		FileSize:         session.FileSize,
		MimeType:         session.MimeType,
	})
}

func (h *UploadHandler) handleUploadError(c *gin.Context, err error, message string) {
	h.log.Error().Err(err).Msg(message)
	c.JSON(upload.HTTPStatus(err), gin.H{"error": err.Error()})
}

// detectMimeType trusts the client header when present and sniffs the
// spooled content otherwise.
func detectMimeType(header, path string) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	if detected, err := mimetype.DetectFile(path); err == nil {
		return detected.String()
	}
	return "application/octet-stream"
}
