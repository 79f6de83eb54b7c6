package v1

import (
	"github.com/gin-gonic/gin"

	"cinevault/services/upload-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/uploads", r.handlers.Upload.Upload)
	group.POST("/uploads/chunked", r.handlers.Upload.UploadChunked)
	group.POST("/uploads/init", r.handlers.Upload.Init)
	group.GET("/uploads/sessions/:id", r.handlers.Upload.GetSession)

	group.GET("/uploads", r.handlers.Progress.List)
	group.GET("/uploads/events", r.handlers.Progress.Events)
	group.GET("/uploads/:id", r.handlers.Progress.Get)
	group.DELETE("/uploads/terminal", r.handlers.Progress.ClearTerminal)

	group.GET("/files", r.handlers.File.List)
	group.GET("/files/:id", r.handlers.File.Get)
	group.GET("/files/:id/download", r.handlers.File.Download)
}
