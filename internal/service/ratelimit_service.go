package service

import (
	"sync"
	"time"

	"videotranscriber/internal/model"
	"videotranscriber/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitService keeps one token bucket per client IP
type RateLimitService struct {
	cfg      *model.RateLimitConfig
	visitors map[string]*visitor
	mu       sync.Mutex
	quitChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(cfg *model.RateLimitConfig) *RateLimitService {
	service := &RateLimitService{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		quitChan: make(chan struct{}),
	}

	if cfg.Enabled && cfg.CleanupInterval > 0 {
		service.wg.Add(1)
		go service.cleanupRoutine()
	}

	return service
}

// Allow consumes one token for ip
func (rls *RateLimitService) Allow(ip string) bool {
	if !rls.cfg.Enabled {
		return true
	}
	if !rls.limiter(ip).Allow() {
		logger.Logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.Int("limit_per_minute", rls.cfg.RequestsPerMinute))
		return false
	}
	return true
}

// Remaining returns the whole tokens left for ip, or -1 when limiting is off
func (rls *RateLimitService) Remaining(ip string) int {
	if !rls.cfg.Enabled {
		return -1
	}
	tokens := int(rls.limiter(ip).Tokens())
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Stop stops the rate limit service
func (rls *RateLimitService) Stop() {
	rls.stopOnce.Do(func() { close(rls.quitChan) })
	rls.wg.Wait()
}

func (rls *RateLimitService) limiter(ip string) *rate.Limiter {
	rls.mu.Lock()
	defer rls.mu.Unlock()

	v, exists := rls.visitors[ip]
	if !exists {
		burst := rls.cfg.BurstSize
		if burst <= 0 {
			burst = rls.cfg.RequestsPerMinute
		}
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(rls.cfg.RequestsPerMinute)/60), burst)}
		rls.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupRoutine periodically forgets idle visitors
func (rls *RateLimitService) cleanupRoutine() {
	defer rls.wg.Done()

	ticker := time.NewTicker(time.Duration(rls.cfg.CleanupInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-rls.quitChan:
			logger.Logger.Info("Rate limit service stopped")
			return
		case <-ticker.C:
			rls.cleanup(time.Now())
		}
	}
}

func (rls *RateLimitService) cleanup(now time.Time) {
	rls.mu.Lock()
	defer rls.mu.Unlock()

	removed := 0
	for ip, v := range rls.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTTL {
			delete(rls.visitors, ip)
			removed++
		}
	}
	if removed > 0 {
		logger.Logger.Debug("Rate limit entries cleaned up", zap.Int("removed", removed), zap.Int("remaining", len(rls.visitors)))
	}
}
