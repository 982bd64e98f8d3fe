package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"videotranscriber/internal/model"
	"videotranscriber/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	rls := service.NewRateLimitService(&model.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, BurstSize: 1})
	defer rls.Stop()

	r := gin.New()
	r.Use(RateLimitMiddleware(rls))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	first := serve(r)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := serve(r)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")
}

func TestQuotaCheckMiddleware(t *testing.T) {
	qs := service.NewQuotaService(&model.QuotaConfig{Enabled: true, DailyLimitMB: 1})
	defer qs.Stop()

	r := gin.New()
	r.Use(QuotaCheckMiddleware(qs))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, serve(r).Code)

	qs.AddUsage("203.0.113.7", 1024*1024)
	w := serve(r)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "quota_exhausted")
}
