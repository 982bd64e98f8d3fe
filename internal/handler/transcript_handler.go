package handler

import (
	"net/http"

	"videotranscriber/internal/caption"
	"videotranscriber/internal/model"
	"videotranscriber/internal/service"
	"videotranscriber/internal/source"

	"github.com/gin-gonic/gin"
)

// TranscriptHandler serves caption tracks
type TranscriptHandler struct {
	transcriptService *service.TranscriptService
}

// NewTranscriptHandler creates a new transcript handler
func NewTranscriptHandler(ts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcriptService: ts}
}

// GetTranscript handles GET /api/transcript?url=&lang=&format=json|txt|vtt
func (h *TranscriptHandler) GetTranscript(c *gin.Context) {
	var query model.TranscriptQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "url is required and format must be json, txt or vtt",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if query.Lang == "" {
		query.Lang = "en"
	}

	ref, err := source.Classify(query.URL)
	if err != nil {
		respondError(c, err, "Invalid URL")
		return
	}

	segments, err := h.transcriptService.FetchCaptions(c.Request.Context(), ref, query.Lang)
	if err != nil {
		respondError(c, err, "Failed to fetch transcript")
		return
	}
	if segments == nil {
		segments = []model.CaptionSegment{}
	}

	switch query.Format {
	case "txt":
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(caption.PlainText(segments)))
	case "vtt":
		c.Data(http.StatusOK, "text/vtt; charset=utf-8", []byte(caption.FormatVTT(segments)))
	default:
		c.JSON(http.StatusOK, model.TranscriptResponse{Transcript: segments, Language: query.Lang})
	}
}
