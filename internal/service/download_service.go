package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"videotranscriber/internal/extractor"
	"videotranscriber/internal/metrics"
	"videotranscriber/internal/model"
	"videotranscriber/internal/storage"
	"videotranscriber/pkg/logger"
	"videotranscriber/pkg/validator"

	"go.uber.org/zap"
)

const (
	outputTemplate = "%(title)s.%(ext)s"
	eventBuffer    = 16
	lineBuffer     = 64
)

var errNoOutput = errors.New("download finished without producing a file")

// DownloadService runs downloads into per-job directories and reports progress
type DownloadService struct {
	runner  Streamer
	storage *storage.Manager
	enabled []model.Quality
}

// NewDownloadService creates a new download service. An empty enabled list
// allows every quality selector.
func NewDownloadService(runner Streamer, sm *storage.Manager, enabled []model.Quality) *DownloadService {
	return &DownloadService{runner: runner, storage: sm, enabled: enabled}
}

// Start allocates a job and launches the extractor. Events arrive on the
// returned channel, which is closed after the terminal event. Cancelling ctx
// stops the extractor and discards the job without a terminal event.
func (s *DownloadService) Start(ctx context.Context, ref model.SourceReference, quality model.Quality) (*model.DownloadJob, <-chan model.ProgressEvent, error) {
	q, ok := validator.ValidateQuality(string(quality), s.enabled)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidQuality, quality)
	}

	job, err := s.storage.Allocate(ref, q)
	if err != nil {
		return nil, nil, err
	}

	events := make(chan model.ProgressEvent, eventBuffer)
	go s.run(ctx, job, events)
	return job, events, nil
}

// Retrieve hands out a finished download once
func (s *DownloadService) Retrieve(id, filename string) (*model.Artifact, error) {
	return s.storage.Claim(id, filename)
}

// Peek returns a job without claiming it
func (s *DownloadService) Peek(id string) (model.DownloadJob, bool) {
	return s.storage.Job(id)
}

// ActiveDownloads returns the number of running download jobs
func (s *DownloadService) ActiveDownloads() int {
	return s.storage.ActiveJobs()
}

func (s *DownloadService) run(ctx context.Context, job *model.DownloadJob, events chan<- model.ProgressEvent) {
	defer close(events)
	metrics.ActiveDownloads.Inc()
	defer metrics.ActiveDownloads.Dec()

	started := time.Now()
	log := logger.Logger.With(zap.String("job_id", job.ID), zap.String("platform", string(job.Source.Platform)))
	log.Info("Download started", zap.String("quality", string(job.Quality)))

	emit := func(ev model.ProgressEvent) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	lines := make(chan extractor.Line, lineBuffer)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- s.runner.Stream(ctx, downloadArgs(job.Source, job.Quality, job.Dir), lines)
		close(lines)
	}()

	for line := range lines {
		if ev, ok := extractor.TranslateLine(line.Text); ok {
			emit(ev)
		}
	}
	err := <-streamErr

	if ctx.Err() != nil {
		s.storage.Discard(job.ID)
		metrics.IncDownloadJob("cancelled")
		log.Info("Download cancelled by client", zap.Duration("elapsed", time.Since(started)))
		return
	}
	if err != nil {
		s.fail(job, emit, err)
		return
	}

	filename, size, err := s.findOutput(job.Dir)
	if err != nil {
		s.fail(job, emit, err)
		return
	}
	if !s.storage.ValidateFileSize(size) {
		s.fail(job, emit, fmt.Errorf("file size %d bytes exceeds the maximum allowed", size))
		return
	}
	if err := s.storage.Complete(job.ID, filename, size); err != nil {
		s.fail(job, emit, err)
		return
	}

	delivered := emit(model.ProgressEvent{
		Status:      model.StatusDone,
		Progress:    100,
		JobID:       job.ID,
		Filename:    filename,
		DownloadURL: "/api/download/" + job.ID + "/" + url.PathEscape(filename),
	})
	if !delivered {
		s.storage.Discard(job.ID)
		metrics.IncDownloadJob("cancelled")
		log.Info("Client left before the download link was sent", zap.Duration("elapsed", time.Since(started)))
		return
	}

	metrics.IncDownloadJob("done")
	log.Info("Download finished",
		zap.String("filename", filename),
		zap.Int64("size", size),
		zap.Duration("elapsed", time.Since(started)))
}

// Abandon is called when the consumer stops reading before it has seen the
// terminal event. It drains events until the job's run ends and then
// discards the job, so a finished file nobody was told about is not kept.
func (s *DownloadService) Abandon(id string, events <-chan model.ProgressEvent) {
	for range events {
	}
	s.storage.Discard(id)
}

func (s *DownloadService) fail(job *model.DownloadJob, emit func(model.ProgressEvent) bool, err error) {
	s.storage.Discard(job.ID)
	metrics.IncDownloadJob("error")
	logger.Logger.Warn("Download failed", zap.String("job_id", job.ID), zap.Error(err))
	emit(model.ProgressEvent{Status: model.StatusError, Message: err.Error()})
}

// findOutput returns the finished file in a job directory. When the extractor
// left more than one, the newest wins.
func (s *DownloadService) findOutput(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read job directory: %w", err)
	}

	var (
		name    string
		size    int64
		newest  time.Time
		matches int
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || extractor.IsPartial(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		matches++
		if name == "" || info.ModTime().After(newest) {
			name, size, newest = entry.Name(), info.Size(), info.ModTime()
		}
	}

	if matches == 0 {
		return "", 0, errNoOutput
	}
	if matches > 1 {
		logger.Logger.Warn("Job directory holds several files; using the newest",
			zap.String("dir", dir), zap.Int("files", matches), zap.String("filename", name))
	}
	return name, size, nil
}

func downloadArgs(ref model.SourceReference, quality model.Quality, dir string) []string {
	merge := "mp4"
	if quality == model.QualityAudio {
		merge = "m4a"
	}
	return []string{
		"-f", formatSelector(ref.Platform, quality),
		"--merge-output-format", merge,
		"-o", filepath.Join(dir, outputTemplate),
		"--no-playlist",
		"--newline",
		"--", ref.URL,
	}
}

// formatSelector maps a quality to the extractor's format expression. TikTok
// serves single muxed files, so only best and bestaudio apply there.
func formatSelector(platform model.Platform, quality model.Quality) string {
	if platform == model.PlatformTikTok {
		if quality == model.QualityAudio {
			return "bestaudio"
		}
		return "best"
	}

	switch quality {
	case model.Quality1080, model.Quality720, model.Quality480, model.Quality360:
		h := string(quality)
		return "bestvideo[height<=" + h + "][ext=mp4]+bestaudio[ext=m4a]/best[height<=" + h + "][ext=mp4]/best"
	case model.QualityAudio:
		return "bestaudio[ext=m4a]/bestaudio"
	default:
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
}
