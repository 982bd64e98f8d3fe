package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"videotranscriber/internal/model"
	"videotranscriber/internal/service"
	"videotranscriber/internal/source"
	"videotranscriber/pkg/logger"
	"videotranscriber/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxAttachmentName = 200

// DownloadHandler handles download-related requests
type DownloadHandler struct {
	downloadService *service.DownloadService
	quotaService    *service.QuotaService
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(ds *service.DownloadService, qs *service.QuotaService) *DownloadHandler {
	return &DownloadHandler{
		downloadService: ds,
		quotaService:    qs,
	}
}

// StartDownload handles GET /api/download?url=&quality= as a server-sent
// event stream. Closing the connection cancels the download.
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var query model.DownloadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "url is required",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if query.Quality == "" {
		query.Quality = string(model.QualityBest)
	}

	ref, err := source.Classify(query.URL)
	if err != nil {
		respondError(c, err, "Invalid URL")
		return
	}

	job, events, err := h.downloadService.Start(c.Request.Context(), ref, model.Quality(query.Quality))
	if err != nil {
		respondError(c, err, "Failed to start download")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	finished := false
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent("message", ev)
		finished = ev.Terminal()
		return !finished
	})

	if !finished {
		h.downloadService.Abandon(job.ID, events)
	}
	logger.Logger.Debug("Event stream closed", zap.String("job_id", job.ID), zap.Bool("finished", finished))
}

// GetFile handles GET /api/download/:id/:filename. A finished download can be
// fetched once; its directory is removed afterwards.
func (h *DownloadHandler) GetFile(c *gin.Context) {
	id := c.Param("id")
	filename := c.Param("filename")
	clientIP := c.ClientIP()

	if job, ok := h.downloadService.Peek(id); ok && job.State == model.JobComplete {
		if allowed, remaining := h.quotaService.CheckQuota(clientIP, job.Size); !allowed {
			c.JSON(http.StatusPaymentRequired, model.ErrorResponse{
				Error:   "quota_exceeded",
				Message: fmt.Sprintf("File needs %d bytes but only %d remain in today's quota.", job.Size, remaining),
				Code:    http.StatusPaymentRequired,
			})
			return
		}
	}

	artifact, err := h.downloadService.Retrieve(id, filename)
	if err != nil {
		respondError(c, err, "Failed to retrieve file")
		return
	}
	defer artifact.Release()

	f, err := os.Open(artifact.Path)
	if err != nil {
		respondError(c, err, "Failed to open file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(c, err, "Failed to open file")
		return
	}

	h.quotaService.AddUsage(clientIP, artifact.Size)

	name := validator.TruncateFilename(validator.SanitizeFilename(artifact.Filename), maxAttachmentName)
	c.Header("Content-Disposition", contentDisposition(name))
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)

	logger.Logger.Info("File retrieved",
		zap.String("job_id", artifact.JobID),
		zap.String("filename", artifact.Filename),
		zap.Int64("size", artifact.Size))
}

// contentDisposition uses the RFC 5987 form when the name is not plain ASCII
func contentDisposition(filename string) string {
	for _, r := range filename {
		if r > 127 || r < 32 || r == '"' || r == '\\' || r == ';' || r == ',' {
			return "attachment; filename*=UTF-8''" + url.PathEscape(filename)
		}
	}
	return `attachment; filename="` + filename + `"`
}
