package model

import (
	"encoding/json"
	"time"
)

// Platform identifies the media-hosting site a URL belongs to
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformTikTok      Platform = "tiktok"
	PlatformInstagram   Platform = "instagram"
	PlatformTwitter     Platform = "twitter"
	PlatformFacebook    Platform = "facebook"
	PlatformReddit      Platform = "reddit"
	PlatformTwitch      Platform = "twitch"
	PlatformVimeo       Platform = "vimeo"
	PlatformDailymotion Platform = "dailymotion"
	PlatformSoundCloud  Platform = "soundcloud"
	PlatformBilibili    Platform = "bilibili"
	PlatformOther       Platform = "other"
)

// SourceReference is a classified, normalized media URL
type SourceReference struct {
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
	VideoID  string   `json:"videoId,omitempty"`
}

// Quality is a download quality selector
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080  Quality = "1080"
	Quality720   Quality = "720"
	Quality480   Quality = "480"
	Quality360   Quality = "360"
	QualityAudio Quality = "audio"
)

// AllQualities lists every selector in the order offered to clients
var AllQualities = []Quality{QualityBest, Quality1080, Quality720, Quality480, Quality360, QualityAudio}

// CaptionSegment is one timed line of a transcript
type CaptionSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// LanguageTrack describes a caption track offered by the extractor
type LanguageTrack struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	IsAuto bool   `json:"isAuto"`
}

// FormatOption represents a downloadable format
type FormatOption struct {
	ID         string   `json:"id"`
	Ext        string   `json:"ext"`
	Resolution string   `json:"resolution"`
	Note       string   `json:"note"`
	FileSize   *int64   `json:"filesize"`
	VideoCodec string   `json:"vcodec"`
	AudioCodec string   `json:"acodec"`
	FPS        *float64 `json:"fps"`
	Quality    string   `json:"quality"` // FHD, HD, SD, FD, Audio
}

// VideoInfo is the metadata returned for a source
type VideoInfo struct {
	Title     string          `json:"title"`
	Channel   string          `json:"channel"`
	Duration  float64         `json:"duration"`
	Thumbnail string          `json:"thumbnail"`
	Languages []LanguageTrack `json:"languages"`
	Formats   []FormatOption  `json:"formats"`
	Platform  Platform        `json:"platform"`
}

// FormatsResponse is the body of GET /api/formats
type FormatsResponse struct {
	Formats  []FormatOption `json:"formats"`
	Title    string         `json:"title"`
	Platform Platform       `json:"platform"`
}

// TranscriptQuery is the query string of GET /api/transcript
type TranscriptQuery struct {
	URL    string `form:"url" binding:"required"`
	Lang   string `form:"lang"`
	Format string `form:"format" binding:"omitempty,oneof=json txt vtt"`
}

// DownloadQuery is the query string of GET /api/download
type DownloadQuery struct {
	URL     string `form:"url" binding:"required"`
	Quality string `form:"quality"`
}

// TranscriptResponse is the JSON body of GET /api/transcript
type TranscriptResponse struct {
	Transcript []CaptionSegment `json:"transcript"`
	Language   string           `json:"language"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	NoSubs  bool   `json:"noSubs,omitempty"`
}

// ExtractorMetadata is the subset of the extractor's --dump-json document we read.
// Subtitle maps stay raw so their key order survives decoding.
type ExtractorMetadata struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Channel           string                   `json:"channel"`
	Uploader          string                   `json:"uploader"`
	Duration          float64                  `json:"duration"`
	Thumbnail         string                   `json:"thumbnail"`
	Subtitles         json.RawMessage          `json:"subtitles"`
	AutomaticCaptions json.RawMessage          `json:"automatic_captions"`
	Formats           []map[string]interface{} `json:"formats"`
}

// JobState is the lifecycle state of a download job
type JobState string

const (
	JobRunning  JobState = "running"
	JobComplete JobState = "complete"
)

// DownloadJob tracks one download and its exclusively owned scratch directory
type DownloadJob struct {
	ID          string
	Dir         string
	Quality     Quality
	Source      SourceReference
	State       JobState
	Filename    string
	Size        int64
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Artifact is a completed download handed out for its single retrieval
type Artifact struct {
	JobID    string
	Filename string
	Path     string
	Size     int64
	release  func()
}

// NewArtifact builds an artifact whose Release runs the given cleanup
func NewArtifact(jobID, filename, path string, size int64, release func()) *Artifact {
	return &Artifact{JobID: jobID, Filename: filename, Path: path, Size: size, release: release}
}

// Release destroys the artifact's scratch directory
func (a *Artifact) Release() {
	if a.release != nil {
		a.release()
		a.release = nil
	}
}

// EventStatus tags a ProgressEvent
type EventStatus string

const (
	StatusStarted     EventStatus = "started"
	StatusDownloading EventStatus = "downloading"
	StatusMerging     EventStatus = "merging"
	StatusDone        EventStatus = "done"
	StatusError       EventStatus = "error"
)

// ProgressEvent is one entry of a download's event stream
type ProgressEvent struct {
	Status      EventStatus `json:"status"`
	Progress    float64     `json:"progress"`
	Detail      string      `json:"detail,omitempty"`
	JobID       string      `json:"jobId,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	DownloadURL string      `json:"downloadUrl,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// Terminal reports whether no further events follow this one
func (e ProgressEvent) Terminal() bool {
	return e.Status == StatusDone || e.Status == StatusError
}
