package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/domain/upload"
)

// ProgressHandler exposes the upload progress observer surface.
type ProgressHandler struct {
	store *upload.ProgressStore
	log   zerolog.Logger
}

func NewProgressHandler(store *upload.ProgressStore, log zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		store: store,
		log:   log.With().Str("component", "progress-handler").Logger(),
	}
}

// List godoc
// @Summary      List upload progress records
// @Description  Returns progress rows newest first. Pass active=true to exclude finished uploads.
// @Tags         progress
// @Produce      json
// @Param        active  query     bool  false  "Only in-flight uploads"
// @Success      200     {array}   upload.Record
// @Security     ApiKeyAuth
// @Router       /v1/uploads [get]
func (h *ProgressHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	if activeOnly {
		c.JSON(http.StatusOK, h.store.ListActive())
		return
	}
	c.JSON(http.StatusOK, h.store.List())
}

// Get godoc
// @Summary      Get one upload progress record
// @Tags         progress
// @Produce      json
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  upload.Record
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /v1/uploads/{id} [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	record, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "upload record not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Events godoc
// @Summary      Stream progress events
// @Description  Server-sent events; one event per store mutation until the client disconnects.
// @Tags         progress
// @Produce      text/event-stream
// @Success      200  {string}  string  "event stream"
// @Security     ApiKeyAuth
// @Router       /v1/uploads/events [get]
func (h *ProgressHandler) Events(c *gin.Context) {
	events, cancel := h.store.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event.Record)
			if err != nil {
				h.log.Warn().Err(err).Msg("marshal progress event")
				return true
			}
			c.SSEvent(string(event.Type), string(payload))
			return true
		}
	})
}

// ClearTerminal godoc
// @Summary      Remove finished upload records
// @Tags         progress
// @Produce      json
// @Success      200  {object}  map[string]int
// @Security     ApiKeyAuth
// @Router       /v1/uploads/terminal [delete]
func (h *ProgressHandler) ClearTerminal(c *gin.Context) {
	removed := h.store.ClearTerminal()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
