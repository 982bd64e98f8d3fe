package handler

import (
	"net/http"

	"videotranscriber/internal/service"
	"videotranscriber/internal/source"

	"github.com/gin-gonic/gin"
)

// VideoHandler handles metadata requests
type VideoHandler struct {
	videoService    *service.VideoService
	downloadService *service.DownloadService
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(vs *service.VideoService, ds *service.DownloadService) *VideoHandler {
	return &VideoHandler{
		videoService:    vs,
		downloadService: ds,
	}
}

// GetVideoInfo handles GET /api/info
func (h *VideoHandler) GetVideoInfo(c *gin.Context) {
	ref, err := source.Classify(c.Query("url"))
	if err != nil {
		respondError(c, err, "Invalid URL")
		return
	}

	info, err := h.videoService.FetchMetadata(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err, "Failed to fetch video info")
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetFormats handles GET /api/formats
func (h *VideoHandler) GetFormats(c *gin.Context) {
	ref, err := source.Classify(c.Query("url"))
	if err != nil {
		respondError(c, err, "Invalid URL")
		return
	}

	formats, err := h.videoService.FetchFormats(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err, "Failed to fetch formats")
		return
	}

	c.JSON(http.StatusOK, formats)
}

// HealthCheck handles GET /api/health
func (h *VideoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"service":         "videotranscriber",
		"activeDownloads": h.downloadService.ActiveDownloads(),
	})
}
