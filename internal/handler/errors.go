package handler

import (
	"errors"
	"net/http"

	"videotranscriber/internal/extractor"
	"videotranscriber/internal/model"
	"videotranscriber/internal/service"
	"videotranscriber/internal/source"
	"videotranscriber/internal/storage"
	"videotranscriber/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorResponse maps a service error to its HTTP status and body. action
// prefixes extractor diagnostics, e.g. "Failed to fetch transcript".
func errorResponse(err error, action string) model.ErrorResponse {
	var (
		extErr *extractor.Error
		noCaps *service.NoCaptionsError
	)

	switch {
	case errors.Is(err, source.ErrInvalidURL):
		return model.ErrorResponse{Error: "invalid_url", Message: "Invalid or unsupported URL", Code: http.StatusBadRequest}
	case errors.Is(err, service.ErrInvalidLanguage):
		return model.ErrorResponse{Error: "invalid_language", Message: "Invalid language code", Code: http.StatusBadRequest}
	case errors.Is(err, service.ErrInvalidQuality):
		return model.ErrorResponse{Error: "invalid_quality", Message: "Invalid or disabled quality", Code: http.StatusBadRequest}
	case errors.Is(err, storage.ErrUnsafePath):
		return model.ErrorResponse{Error: "invalid_path", Message: "Invalid file reference", Code: http.StatusBadRequest}
	case errors.Is(err, storage.ErrArtifactNotFound):
		return model.ErrorResponse{Error: "not_found", Message: "File not found or has expired", Code: http.StatusNotFound}
	case errors.As(err, &noCaps):
		return model.ErrorResponse{Error: "no_subtitles", Message: noCaps.Error(), Code: http.StatusNotFound, NoSubs: true}
	case errors.As(err, &extErr):
		return model.ErrorResponse{Error: "extraction_failed", Message: action + ": " + extErr.Error(), Code: http.StatusBadGateway}
	default:
		return model.ErrorResponse{Error: "internal_error", Message: action, Code: http.StatusInternalServerError}
	}
}

func respondError(c *gin.Context, err error, action string) {
	resp := errorResponse(err, action)
	if resp.Code >= http.StatusInternalServerError {
		logger.Logger.Error(action, zap.Error(err), zap.String("path", c.Request.URL.Path))
	} else {
		logger.Logger.Warn(action, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	_ = c.Error(err)
	c.JSON(resp.Code, resp)
}
