package handler

import (
	"mime"
	"net/http"

	"github.com/astro-analytics/video-tagging-go/internal/service"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportHandler serves export downloads and retention maintenance.
type ExportHandler struct {
	taggingService *service.TaggingService
}

// NewExportHandler creates a new ExportHandler instance.
func NewExportHandler(taggingService *service.TaggingService) *ExportHandler {
	return &ExportHandler{
		taggingService: taggingService,
	}
}

// Export renders the requested format and sends it as an attachment.
func (h *ExportHandler) Export(c *gin.Context) {
	videoID := c.Param("videoId")
	format := c.Param("format")

	artifact, err := h.taggingService.Export(c.Request.Context(), videoID, format)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", attachmentDisposition(artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// Sweep runs the retention sweep on demand.
func (h *ExportHandler) Sweep(c *gin.Context) {
	result, err := h.taggingService.Sweep(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	logger.Log.Info("Retention sweep requested",
		zap.Int("removed", result.Removed),
		zap.String("sourceIp", c.ClientIP()),
	)

	c.JSON(http.StatusOK, result)
}

// attachmentDisposition formats an RFC 6266 attachment header. Non-ASCII
// names use the RFC 2231 filename* form.
func attachmentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
