package middleware

import (
	"net/http"
	"strconv"

	"videotranscriber/internal/model"
	"videotranscriber/internal/service"
	"videotranscriber/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware rejects clients that exhausted their token bucket
func RateLimitMiddleware(rateLimitService *service.RateLimitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !rateLimitService.Allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Too many requests. Please try again later.",
				Code:    http.StatusTooManyRequests,
			})
			return
		}

		if remaining := rateLimitService.Remaining(ip); remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}

		c.Next()
	}
}

// QuotaCheckMiddleware turns clients away from artifact retrieval once their
// daily quota is used up
func QuotaCheckMiddleware(quotaService *service.QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if allowed, _ := quotaService.CheckQuota(ip, 0); !allowed {
			usage := quotaService.Usage(ip)
			logger.Logger.Warn("Quota exhausted", zap.String("ip", ip), zap.Time("reset_time", usage.ResetTime))
			c.AbortWithStatusJSON(http.StatusPaymentRequired, model.ErrorResponse{
				Error:   "quota_exhausted",
				Message: "Daily download quota exhausted. Please try again after quota reset.",
				Code:    http.StatusPaymentRequired,
			})
			return
		}

		c.Next()
	}
}
