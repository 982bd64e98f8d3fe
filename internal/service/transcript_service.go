package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"videotranscriber/internal/caption"
	"videotranscriber/internal/metrics"
	"videotranscriber/internal/model"
	"videotranscriber/internal/storage"
	"videotranscriber/pkg/logger"
	"videotranscriber/pkg/validator"

	"go.uber.org/zap"
)

const captionFilePrefix = "subs"

// TranscriptService fetches a single caption track and parses it
type TranscriptService struct {
	runner  Collector
	storage *storage.Manager
}

// NewTranscriptService creates a new transcript service
func NewTranscriptService(runner Collector, sm *storage.Manager) *TranscriptService {
	return &TranscriptService{runner: runner, storage: sm}
}

// FetchCaptions has the extractor write the lang track as WebVTT into a
// private scratch directory, parses it, and removes the directory.
func (s *TranscriptService) FetchCaptions(ctx context.Context, ref model.SourceReference, lang string) ([]model.CaptionSegment, error) {
	if !validator.ValidateLanguageCode(lang) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}

	dir, err := s.storage.AllocateScratch(storage.CaptionsScratch)
	if err != nil {
		return nil, err
	}
	defer s.storage.RemoveScratch(dir)

	prefix := filepath.Join(dir, captionFilePrefix)
	args := []string{
		"--write-sub", "--write-auto-sub",
		"--sub-lang", lang,
		"--sub-format", "vtt",
		"--skip-download", "--no-playlist",
		"-o", prefix,
		"--", ref.URL,
	}
	if _, err := s.runner.Collect(ctx, args); err != nil {
		if ref.Platform == model.PlatformTikTok {
			logger.Logger.Info("TikTok caption fetch failed", zap.Error(err))
			return nil, &NoCaptionsError{Platform: ref.Platform}
		}
		return nil, err
	}

	path, ok := findCaptionFile(dir, lang)
	if !ok {
		return nil, &NoCaptionsError{Platform: ref.Platform}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption file: %w", err)
	}

	segments := caption.ParseVTT(string(data))
	metrics.CaptionSegments.Observe(float64(len(segments)))
	logger.Logger.Info("Transcript fetched",
		zap.String("platform", string(ref.Platform)),
		zap.String("lang", lang),
		zap.String("file", filepath.Base(path)),
		zap.Int("segments", len(segments)))
	return segments, nil
}

// findCaptionFile prefers subs.<lang>.vtt and otherwise takes the first
// subs.*.vtt the extractor wrote, since it may pick a variant such as en-US.
func findCaptionFile(dir, lang string) (string, bool) {
	exact := filepath.Join(dir, captionFilePrefix+"."+lang+".vtt")
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return exact, true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, captionFilePrefix+".") && strings.HasSuffix(name, ".vtt") {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}
