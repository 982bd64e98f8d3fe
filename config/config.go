package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"videotranscriber/internal/model"

	"github.com/joho/godotenv"
)

// Load loads configuration from a .env file, if any, and the environment
func Load() *model.Config {
	_ = godotenv.Load()

	return &model.Config{
		Server: model.ServerConfig{
			Port:    getEnvInt("SERVER_PORT", 3000),
			Host:    getEnvStr("SERVER_HOST", "0.0.0.0"),
			Timeout: getEnvInt("SERVER_TIMEOUT", 60),
		},
		Extractor: model.ExtractorConfig{
			Binary:      getEnvStr("EXTRACTOR_BINARY", "yt-dlp"),
			Timeout:     getEnvInt("EXTRACTOR_TIMEOUT", 30),
			MaxOutputMB: getEnvInt("EXTRACTOR_MAX_OUTPUT_MB", 10),
			KillGrace:   getEnvInt("EXTRACTOR_KILL_GRACE", 5),
		},
		Storage: model.StorageConfig{
			ScratchDir:      getEnvStr("SCRATCH_DIR", filepath.Join(os.TempDir(), "videotranscriber")),
			MaxVideoSizeMB:  getEnvInt("MAX_VIDEO_SIZE_MB", 2048),
			CleanupInterval: getEnvInt("STORAGE_CLEANUP_INTERVAL", 300),
			FileTTLSeconds:  getEnvInt("FILE_TTL_SECONDS", 3600),
		},
		Downloads: model.DownloadsConfig{
			EnabledQualities: parseEnabledQualities(getEnvStr("ENABLED_QUALITIES", "")),
		},
		Logging: model.LoggingConfig{
			Level:    getEnvStr("LOG_LEVEL", "info"),
			FilePath: getEnvStr("LOG_FILE", ""),
		},
		Quota: model.QuotaConfig{
			Enabled:      getEnvBool("QUOTA_ENABLED", false),
			DailyLimitMB: getEnvInt64("QUOTA_DAILY_LIMIT_MB", 1000),
			ResetHour:    getEnvInt("QUOTA_RESET_HOUR", 0),
			ResetMinute:  getEnvInt("QUOTA_RESET_MINUTE", 0),
		},
		RateLimit: model.RateLimitConfig{
			Enabled:           getEnvBool("RATELIMIT_ENABLED", true),
			RequestsPerMinute: getEnvInt("RATELIMIT_REQUESTS_PER_MINUTE", 60),
			BurstSize:         getEnvInt("RATELIMIT_BURST_SIZE", 10),
			CleanupInterval:   getEnvInt("RATELIMIT_CLEANUP_INTERVAL", 1800),
		},
		Frontend: model.FrontendConfig{
			Dir: getEnvStr("FRONTEND_DIR", "./public"),
		},
	}
}

// parseEnabledQualities parses comma-separated quality selectors. Unknown
// entries are ignored; an empty result enables every selector.
func parseEnabledQualities(qualitiesStr string) []model.Quality {
	known := make(map[model.Quality]bool, len(model.AllQualities))
	for _, q := range model.AllQualities {
		known[q] = true
	}

	var enabled []model.Quality
	for _, part := range strings.Split(qualitiesStr, ",") {
		q := model.Quality(strings.ToLower(strings.TrimSpace(part)))
		if known[q] {
			enabled = append(enabled, q)
		}
	}

	if len(enabled) == 0 {
		return append([]model.Quality(nil), model.AllQualities...)
	}
	return enabled
}

func getEnvStr(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, err := strconv.Atoi(getEnvStr(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val, err := strconv.ParseInt(getEnvStr(key, ""), 10, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	switch strings.ToLower(getEnvStr(key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}
