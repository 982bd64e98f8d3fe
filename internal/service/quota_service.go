package service

import (
	"sync"
	"time"

	"videotranscriber/internal/model"
	"videotranscriber/pkg/logger"

	"go.uber.org/zap"
)

const bytesPerMB = 1024 * 1024

// QuotaEntry tracks the bytes an IP retrieved since its last reset
type QuotaEntry struct {
	UsedBytes int64
	ResetTime time.Time
}

// QuotaUsage is the quota state reported to clients
type QuotaUsage struct {
	Enabled        bool      `json:"enabled"`
	UsedBytes      int64     `json:"usedBytes"`
	LimitBytes     int64     `json:"limitBytes"`
	RemainingBytes int64     `json:"remainingBytes"`
	ResetTime      time.Time `json:"resetTime"`
}

// QuotaService caps the artifact bytes each IP may retrieve per day
type QuotaService struct {
	cfg      *model.QuotaConfig
	quotas   map[string]*QuotaEntry
	mu       sync.Mutex
	now      func() time.Time
	quitChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewQuotaService creates a new quota service
func NewQuotaService(cfg *model.QuotaConfig) *QuotaService {
	service := &QuotaService{
		cfg:      cfg,
		quotas:   make(map[string]*QuotaEntry),
		now:      time.Now,
		quitChan: make(chan struct{}),
	}

	if cfg.Enabled {
		service.wg.Add(1)
		go service.resetRoutine()
	}

	return service
}

// CheckQuota reports whether ip may retrieve size more bytes, and how many remain
func (qs *QuotaService) CheckQuota(ip string, size int64) (bool, int64) {
	limit := qs.limitBytes()
	if !qs.cfg.Enabled {
		return true, limit
	}

	qs.mu.Lock()
	defer qs.mu.Unlock()

	entry := qs.entryLocked(ip)
	remaining := limit - entry.UsedBytes
	if remaining <= 0 {
		logger.Logger.Warn("Quota exhausted", zap.String("ip", ip), zap.Int64("limit_mb", qs.cfg.DailyLimitMB))
		return false, 0
	}
	if size > remaining {
		logger.Logger.Warn("Quota insufficient", zap.String("ip", ip), zap.Int64("requested_bytes", size), zap.Int64("remaining_bytes", remaining))
		return false, remaining
	}
	return true, remaining
}

// AddUsage charges size bytes to ip
func (qs *QuotaService) AddUsage(ip string, size int64) {
	if !qs.cfg.Enabled {
		return
	}

	qs.mu.Lock()
	defer qs.mu.Unlock()

	entry := qs.entryLocked(ip)
	entry.UsedBytes += size
	logger.Logger.Debug("Quota usage updated", zap.String("ip", ip), zap.Int64("used_bytes", entry.UsedBytes))
}

// Usage returns the current quota state for ip
func (qs *QuotaService) Usage(ip string) QuotaUsage {
	if !qs.cfg.Enabled {
		return QuotaUsage{}
	}

	qs.mu.Lock()
	defer qs.mu.Unlock()

	entry := qs.entryLocked(ip)
	limit := qs.limitBytes()
	remaining := limit - entry.UsedBytes
	if remaining < 0 {
		remaining = 0
	}
	return QuotaUsage{
		Enabled:        true,
		UsedBytes:      entry.UsedBytes,
		LimitBytes:     limit,
		RemainingBytes: remaining,
		ResetTime:      entry.ResetTime,
	}
}

// Stop stops the quota service
func (qs *QuotaService) Stop() {
	qs.stopOnce.Do(func() { close(qs.quitChan) })
	qs.wg.Wait()
}

// entryLocked returns ip's entry, creating or resetting it as needed. Callers hold qs.mu.
func (qs *QuotaService) entryLocked(ip string) *QuotaEntry {
	now := qs.now()
	entry, exists := qs.quotas[ip]
	if !exists {
		entry = &QuotaEntry{ResetTime: qs.calculateResetTime(now)}
		qs.quotas[ip] = entry
		return entry
	}
	if now.After(entry.ResetTime) {
		entry.UsedBytes = 0
		entry.ResetTime = qs.calculateResetTime(now)
	}
	return entry
}

func (qs *QuotaService) limitBytes() int64 {
	return qs.cfg.DailyLimitMB * bytesPerMB
}

// calculateResetTime calculates next reset time based on config
func (qs *QuotaService) calculateResetTime(now time.Time) time.Time {
	resetTime := time.Date(now.Year(), now.Month(), now.Day(), qs.cfg.ResetHour, qs.cfg.ResetMinute, 0, 0, now.Location())
	if !resetTime.After(now) {
		resetTime = resetTime.AddDate(0, 0, 1)
	}
	return resetTime
}

// resetRoutine periodically drops entries whose reset time has passed
func (qs *QuotaService) resetRoutine() {
	defer qs.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-qs.quitChan:
			logger.Logger.Info("Quota service stopped")
			return
		case <-ticker.C:
			qs.dropExpired()
		}
	}
}

func (qs *QuotaService) dropExpired() {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	now := qs.now()
	dropped := 0
	for ip, entry := range qs.quotas {
		if now.After(entry.ResetTime) {
			delete(qs.quotas, ip)
			dropped++
		}
	}
	if dropped > 0 {
		logger.Logger.Info("Quota reset completed", zap.Int("entries_reset", dropped))
	}
}
