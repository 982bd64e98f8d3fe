package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"videotranscriber/internal/caption"
	"videotranscriber/internal/extractor"
	"videotranscriber/internal/model"
	"videotranscriber/pkg/logger"

	"go.uber.org/zap"
)

const youTubeThumbnailURL = "https://img.youtube.com/vi/%s/hqdefault.jpg"

// VideoService handles video metadata extraction
type VideoService struct {
	runner Collector
}

// NewVideoService creates a new video service
func NewVideoService(runner Collector) *VideoService {
	return &VideoService{runner: runner}
}

// FetchMetadata asks the extractor for a source's metadata and caption tracks
func (s *VideoService) FetchMetadata(ctx context.Context, ref model.SourceReference) (*model.VideoInfo, error) {
	out, err := s.runner.Collect(ctx, []string{"--dump-json", "--skip-download", "--no-playlist", "--", ref.URL})
	if err != nil {
		logger.Logger.Warn("Failed to fetch video info", zap.String("platform", string(ref.Platform)), zap.Error(err))
		return nil, err
	}

	var metadata model.ExtractorMetadata
	if err := json.NewDecoder(strings.NewReader(out)).Decode(&metadata); err != nil {
		logger.Logger.Error("Failed to decode extractor output", zap.Error(err))
		return nil, &extractor.Error{Err: fmt.Errorf("invalid extractor output: %w", err)}
	}

	info, err := s.parseMetadata(ref, metadata)
	if err != nil {
		return nil, err
	}
	logger.Logger.Info("Video info retrieved",
		zap.String("platform", string(ref.Platform)),
		zap.Int("languages", len(info.Languages)),
		zap.Int("formats", len(info.Formats)))
	return info, nil
}

// FetchFormats returns only the downloadable formats of a source
func (s *VideoService) FetchFormats(ctx context.Context, ref model.SourceReference) (*model.FormatsResponse, error) {
	info, err := s.FetchMetadata(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &model.FormatsResponse{Formats: info.Formats, Title: info.Title, Platform: info.Platform}, nil
}

// parseMetadata converts raw metadata to VideoInfo
func (s *VideoService) parseMetadata(ref model.SourceReference, metadata model.ExtractorMetadata) (*model.VideoInfo, error) {
	manual, err := objectKeys(metadata.Subtitles)
	if err != nil {
		return nil, &extractor.Error{Err: fmt.Errorf("invalid subtitles field: %w", err)}
	}
	automatic, err := objectKeys(metadata.AutomaticCaptions)
	if err != nil {
		return nil, &extractor.Error{Err: fmt.Errorf("invalid automatic_captions field: %w", err)}
	}

	formats := []model.FormatOption{}
	for _, raw := range metadata.Formats {
		if format := parseFormat(raw); format != nil {
			formats = append(formats, *format)
		}
	}

	channel := metadata.Channel
	if channel == "" {
		channel = metadata.Uploader
	}

	thumbnail := metadata.Thumbnail
	if ref.Platform == model.PlatformYouTube {
		id := ref.VideoID
		if id == "" {
			id = metadata.ID
		}
		if id != "" {
			thumbnail = fmt.Sprintf(youTubeThumbnailURL, id)
		}
	}

	return &model.VideoInfo{
		Title:     metadata.Title,
		Channel:   channel,
		Duration:  metadata.Duration,
		Thumbnail: thumbnail,
		Languages: caption.Tracks(manual, automatic),
		Formats:   formats,
		Platform:  ref.Platform,
	}, nil
}

// objectKeys returns the keys of a JSON object in document order. Absent and
// null values yield no keys.
func objectKeys(raw json.RawMessage) ([]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// parseFormat converts raw format data to FormatOption. Entries without an
// extension or a note are not offered.
func parseFormat(raw map[string]interface{}) *model.FormatOption {
	ext, _ := raw["ext"].(string)
	note, _ := raw["format_note"].(string)
	if ext == "" || note == "" {
		return nil
	}

	format := &model.FormatOption{Ext: ext, Note: note, Resolution: "audio only"}
	format.ID, _ = raw["format_id"].(string)
	if v, ok := raw["resolution"].(string); ok && v != "" {
		format.Resolution = v
	}
	format.VideoCodec, _ = raw["vcodec"].(string)
	format.AudioCodec, _ = raw["acodec"].(string)

	if v, ok := raw["filesize"].(float64); ok && v > 0 {
		size := int64(v)
		format.FileSize = &size
	} else if v, ok := raw["filesize_approx"].(float64); ok && v > 0 {
		size := int64(v)
		format.FileSize = &size
	}
	if v, ok := raw["fps"].(float64); ok {
		format.FPS = &v
	}

	format.Quality = determineQuality(format)
	return format
}

// determineQuality buckets a format into Audio, FD (<=360p), SD (480p),
// HD (720p) or FHD (1080p and above)
func determineQuality(format *model.FormatOption) string {
	if format.VideoCodec == "none" || format.Resolution == "audio only" {
		return "Audio"
	}

	_, h, ok := strings.Cut(format.Resolution, "x")
	if !ok {
		return "Unknown"
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return "Unknown"
	}

	switch {
	case height >= 1072:
		return "FHD"
	case height >= 714:
		return "HD"
	case height >= 476:
		return "SD"
	default:
		return "FD"
	}
}
