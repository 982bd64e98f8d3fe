package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API under /api. retrieval middleware only guards
// artifact downloads.
func RegisterRoutes(r gin.IRouter, vh *VideoHandler, th *TranscriptHandler, dh *DownloadHandler, retrieval ...gin.HandlerFunc) {
	api := r.Group("/api")
	{
		api.GET("/info", vh.GetVideoInfo)
		api.GET("/formats", vh.GetFormats)
		api.GET("/transcript", th.GetTranscript)

		api.GET("/download", dh.StartDownload)
		fileChain := append(append([]gin.HandlerFunc{}, retrieval...), dh.GetFile)
		api.GET("/download/:id/:filename", fileChain...)

		api.GET("/health", vh.HealthCheck)
	}
}
