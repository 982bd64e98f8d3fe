package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"videotranscriber/internal/model"
)

func TestRateLimitBurst(t *testing.T) {
	rls := NewRateLimitService(&model.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, BurstSize: 2, CleanupInterval: 60})
	defer rls.Stop()

	assert.True(t, rls.Allow("1.2.3.4"))
	assert.True(t, rls.Allow("1.2.3.4"))
	assert.False(t, rls.Allow("1.2.3.4"))
	assert.Equal(t, 0, rls.Remaining("1.2.3.4"))

	assert.True(t, rls.Allow("5.6.7.8"), "limits are per IP")
}

func TestRateLimitDisabled(t *testing.T) {
	rls := NewRateLimitService(&model.RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1})
	defer rls.Stop()

	for i := 0; i < 10; i++ {
		assert.True(t, rls.Allow("1.2.3.4"))
	}
	assert.Equal(t, -1, rls.Remaining("1.2.3.4"))
}

func TestRateLimitCleanupForgetsIdleVisitors(t *testing.T) {
	rls := NewRateLimitService(&model.RateLimitConfig{Enabled: true, RequestsPerMinute: 60})
	defer rls.Stop()

	rls.Allow("1.2.3.4")
	rls.cleanup(time.Now())
	assert.Len(t, rls.visitors, 1)

	rls.cleanup(time.Now().Add(visitorIdleTTL + time.Second))
	assert.Empty(t, rls.visitors)
}
