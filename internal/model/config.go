package model

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Extractor ExtractorConfig
	Storage   StorageConfig
	Downloads DownloadsConfig
	Logging   LoggingConfig
	Quota     QuotaConfig
	RateLimit RateLimitConfig
	Frontend  FrontendConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    int
	Host    string
	Timeout int // seconds, applies to reads only; event streams have no write deadline
}

// ExtractorConfig holds settings for the external extractor binary
type ExtractorConfig struct {
	Binary      string
	Timeout     int // seconds, collect mode only
	MaxOutputMB int
	KillGrace   int // seconds between SIGTERM and SIGKILL
}

// StorageConfig holds scratch storage configuration
type StorageConfig struct {
	ScratchDir      string
	MaxVideoSizeMB  int
	CleanupInterval int // seconds
	FileTTLSeconds  int // how long a completed artifact waits for its retrieval
}

// DownloadsConfig restricts which quality selectors clients may request
type DownloadsConfig struct {
	EnabledQualities []Quality
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string
	FilePath string
}

// QuotaConfig holds user download quota configuration
type QuotaConfig struct {
	Enabled      bool  // Enable quota limiting
	DailyLimitMB int64 // Daily quota limit in MB per IP
	ResetHour    int   // Hour (0-23) to reset quota
	ResetMinute  int   // Minute (0-59) to reset quota
}

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
	CleanupInterval   int // seconds
}

// FrontendConfig points at optional static assets served next to the API
type FrontendConfig struct {
	Dir string
}
