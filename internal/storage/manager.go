package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"videotranscriber/internal/metrics"
	"videotranscriber/internal/model"
	"videotranscriber/pkg/logger"
	"videotranscriber/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrArtifactNotFound is returned for unknown, unfinished or already claimed jobs.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrUnsafePath is returned when a job id or filename could escape the job directory.
	ErrUnsafePath = errors.New("unsafe artifact path")
)

// CaptionsScratch is the AllocateScratch prefix for caption fetches.
const CaptionsScratch = "captions"

// scratchPrefixes lists the AllocateScratch prefixes left behind by a crash.
var scratchPrefixes = []string{CaptionsScratch + "-"}

// Manager owns the scratch root: one directory per download job plus
// short-lived directories for caption fetches
type Manager struct {
	cfg      *model.StorageConfig
	jobs     map[string]*model.DownloadJob
	mu       sync.Mutex
	quitChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a new storage manager
func NewManager(cfg *model.StorageConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		jobs:     make(map[string]*model.DownloadJob),
		quitChan: make(chan struct{}),
	}
}

// EnsureRoot ensures the scratch root exists
func (m *Manager) EnsureRoot() error {
	return os.MkdirAll(m.cfg.ScratchDir, 0o755)
}

// Root returns the scratch root directory
func (m *Manager) Root() string {
	return m.cfg.ScratchDir
}

// Start removes directories left behind by a previous run and starts the
// expiry routine
func (m *Manager) Start() error {
	if err := m.EnsureRoot(); err != nil {
		return fmt.Errorf("failed to create scratch root: %w", err)
	}
	m.removeOrphans()

	if m.cfg.CleanupInterval <= 0 {
		logger.Logger.Info("Storage cleanup routine disabled")
		return nil
	}
	m.wg.Add(1)
	go m.cleanupRoutine()
	return nil
}

// Stop stops the cleanup routine and waits for it to exit
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.quitChan) })
	m.wg.Wait()
}

// Allocate creates a fresh job and its exclusively owned directory
func (m *Manager) Allocate(ref model.SourceReference, quality model.Quality) (*model.DownloadJob, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.cfg.ScratchDir, id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	job := &model.DownloadJob{
		ID:        id,
		Dir:       dir,
		Quality:   quality,
		Source:    ref,
		State:     model.JobRunning,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	logger.Logger.Info("Job allocated",
		zap.String("id", id),
		zap.String("platform", string(ref.Platform)),
		zap.String("quality", string(quality)))
	return job, nil
}

// Complete marks a running job as finished with its single output file
func (m *Manager) Complete(id, filename string, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.State != model.JobRunning {
		return ErrArtifactNotFound
	}
	job.State = model.JobComplete
	job.Filename = filename
	job.Size = size
	job.CompletedAt = time.Now()

	logger.Logger.Info("Job completed",
		zap.String("id", id),
		zap.String("filename", filename),
		zap.Int64("size", size))
	return nil
}

// Discard forgets a job and removes its directory. Removal is best effort.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	delete(m.jobs, id)
	m.mu.Unlock()

	if ok {
		removeDir(job.Dir, "discard")
	}
}

// Claim hands out a completed job's file exactly once. The job leaves the
// registry immediately; its directory goes away when the artifact is released.
func (m *Manager) Claim(id, filename string) (*model.Artifact, error) {
	if !validator.SafePathComponent(id) || !validator.SafePathComponent(filename) {
		metrics.IncRetrieval("unsafe")
		return nil, ErrUnsafePath
	}

	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok || job.State != model.JobComplete || job.Filename != filename {
		m.mu.Unlock()
		metrics.IncRetrieval("not_found")
		return nil, ErrArtifactNotFound
	}
	delete(m.jobs, id)
	m.mu.Unlock()

	path := filepath.Join(job.Dir, filename)
	if !within(job.Dir, path) {
		removeDir(job.Dir, "discard")
		metrics.IncRetrieval("unsafe")
		return nil, ErrUnsafePath
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		removeDir(job.Dir, "discard")
		metrics.IncRetrieval("not_found")
		return nil, ErrArtifactNotFound
	}

	metrics.IncRetrieval("ok")
	dir := job.Dir
	return model.NewArtifact(id, filename, path, info.Size(), func() {
		removeDir(dir, "retrieved")
	}), nil
}

// AllocateScratch creates a temporary directory for a single request
func (m *Manager) AllocateScratch(prefix string) (string, error) {
	dir, err := os.MkdirTemp(m.cfg.ScratchDir, prefix+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, nil
}

// RemoveScratch removes a directory created by AllocateScratch
func (m *Manager) RemoveScratch(dir string) {
	if !within(m.cfg.ScratchDir, dir) {
		logger.Logger.Error("Refusing to remove directory outside scratch root", zap.String("path", dir))
		return
	}
	removeDir(dir, "scratch")
}

// Job returns a copy of a tracked job
func (m *Manager) Job(id string) (model.DownloadJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return model.DownloadJob{}, false
	}
	return *job, true
}

// ActiveJobs returns the number of jobs whose extractor is still running
func (m *Manager) ActiveJobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, job := range m.jobs {
		if job.State == model.JobRunning {
			count++
		}
	}
	return count
}

// TrackedJobs returns the number of jobs currently tracked
func (m *Manager) TrackedJobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// ValidateFileSize checks if file size is within limits
func (m *Manager) ValidateFileSize(sizeBytes int64) bool {
	if m.cfg.MaxVideoSizeMB <= 0 {
		return true
	}
	maxSizeBytes := int64(m.cfg.MaxVideoSizeMB) * 1024 * 1024
	return sizeBytes <= maxSizeBytes
}

// cleanupRoutine periodically removes completed jobs nobody retrieved
func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Duration(m.cfg.CleanupInterval) * time.Second)
	defer ticker.Stop()

	logger.Logger.Info("Storage cleanup routine started",
		zap.Int("cleanup_interval_seconds", m.cfg.CleanupInterval),
		zap.Int("file_ttl_seconds", m.cfg.FileTTLSeconds))

	for {
		select {
		case <-m.quitChan:
			logger.Logger.Info("Storage cleanup routine stopped")
			return
		case <-ticker.C:
			m.cleanupExpiredJobs(time.Now())
		}
	}
}

// cleanupExpiredJobs removes completed jobs older than the TTL. Running jobs
// are left alone; their download handler owns them.
func (m *Manager) cleanupExpiredJobs(now time.Time) {
	ttl := time.Duration(m.cfg.FileTTLSeconds) * time.Second

	m.mu.Lock()
	var expired []*model.DownloadJob
	for id, job := range m.jobs {
		if job.State == model.JobComplete && now.Sub(job.CompletedAt) > ttl {
			expired = append(expired, job)
			delete(m.jobs, id)
		}
	}
	remaining := len(m.jobs)
	m.mu.Unlock()

	for _, job := range expired {
		removeDir(job.Dir, "expired")
	}

	if len(expired) > 0 {
		logger.Logger.Info("Storage cleanup completed",
			zap.Int("expired_count", len(expired)),
			zap.Int("remaining_tracked_jobs", remaining))
	}
}

// removeOrphans deletes job and scratch directories of an earlier run that
// no job owns. Entries this manager never creates are left alone, so a shared
// root such as /tmp is safe.
func (m *Manager) removeOrphans() {
	entries, err := os.ReadDir(m.cfg.ScratchDir)
	if err != nil {
		logger.Logger.Warn("Failed to list scratch root", zap.String("path", m.cfg.ScratchDir), zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range entries {
		if !entry.IsDir() || !isManagedName(entry.Name()) {
			continue
		}
		if _, owned := m.jobs[entry.Name()]; owned {
			continue
		}
		removeDir(filepath.Join(m.cfg.ScratchDir, entry.Name()), "orphan")
	}
}

// isManagedName reports whether name has the shape of a directory created by
// Allocate or AllocateScratch.
func isManagedName(name string) bool {
	if _, err := uuid.Parse(name); err == nil && len(name) == 36 {
		return true
	}
	for _, prefix := range scratchPrefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return true
		}
	}
	return false
}

func removeDir(dir, reason string) {
	if err := os.RemoveAll(dir); err != nil {
		metrics.IncScratchCleanup(reason, "error")
		logger.Logger.Error("Failed to remove scratch directory",
			zap.String("path", dir),
			zap.String("reason", reason),
			zap.Error(err))
		return
	}
	metrics.IncScratchCleanup(reason, "ok")
	logger.Logger.Debug("Scratch directory removed", zap.String("path", dir), zap.String("reason", reason))
}

// within reports whether path lies strictly inside dir, lexically
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
