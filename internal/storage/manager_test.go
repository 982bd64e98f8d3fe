package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotranscriber/internal/model"
)

var testRef = model.SourceReference{Platform: model.PlatformYouTube, URL: "https://youtube.com/watch?v=abc", VideoID: "abc"}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(&model.StorageConfig{
		ScratchDir:     t.TempDir(),
		MaxVideoSizeMB: 1,
		FileTTLSeconds: 60,
	})
	require.NoError(t, m.EnsureRoot())
	return m
}

func completeJob(t *testing.T, m *Manager, filename, content string) *model.DownloadJob {
	t.Helper()
	job, err := m.Allocate(testRef, model.QualityBest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(job.Dir, filename), []byte(content), 0o600))
	require.NoError(t, m.Complete(job.ID, filename, int64(len(content))))
	return job
}

func TestAllocateCreatesDistinctDirectories(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Allocate(testRef, model.QualityBest)
	require.NoError(t, err)
	b, err := m.Allocate(testRef, model.QualityAudio)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Dir, b.Dir)
	assert.DirExists(t, a.Dir)
	assert.DirExists(t, b.Dir)
	assert.Equal(t, model.JobRunning, a.State)
	assert.Equal(t, 2, m.ActiveJobs())
}

func TestClaimIsOneShot(t *testing.T) {
	m := newTestManager(t)
	job := completeJob(t, m, "clip.mp4", "media-bytes")

	artifact, err := m.Claim(job.ID, "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(len("media-bytes")), artifact.Size)
	assert.Equal(t, filepath.Join(job.Dir, "clip.mp4"), artifact.Path)

	_, err = m.Claim(job.ID, "clip.mp4")
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	assert.DirExists(t, job.Dir)
	artifact.Release()
	assert.NoDirExists(t, job.Dir)
	artifact.Release()
}

func TestClaimRejectsUnsafeComponents(t *testing.T) {
	m := newTestManager(t)
	job := completeJob(t, m, "clip.mp4", "x")

	for _, tc := range []struct{ id, filename string }{
		{job.ID, "../clip.mp4"},
		{job.ID, ".."},
		{job.ID, "."},
		{job.ID, "sub/clip.mp4"},
		{job.ID, `sub\clip.mp4`},
		{job.ID, "clip.mp4\x00"},
		{"..", "clip.mp4"},
		{"../" + job.ID, "clip.mp4"},
	} {
		_, err := m.Claim(tc.id, tc.filename)
		assert.ErrorIs(t, err, ErrUnsafePath, "%q %q", tc.id, tc.filename)
	}

	// Rejected attempts do not consume the artifact.
	artifact, err := m.Claim(job.ID, "clip.mp4")
	require.NoError(t, err)
	artifact.Release()
}

func TestClaimUnknownOrRunningJob(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Claim("00000000-0000-4000-8000-000000000000", "clip.mp4")
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	job, err := m.Allocate(testRef, model.QualityBest)
	require.NoError(t, err)
	_, err = m.Claim(job.ID, "clip.mp4")
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	completed := completeJob(t, m, "clip.mp4", "x")
	_, err = m.Claim(completed.ID, "other.mp4")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestClaimMissingFileDiscardsJob(t *testing.T) {
	m := newTestManager(t)
	job := completeJob(t, m, "clip.mp4", "x")
	require.NoError(t, os.Remove(filepath.Join(job.Dir, "clip.mp4")))

	_, err := m.Claim(job.ID, "clip.mp4")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	assert.NoDirExists(t, job.Dir)
	assert.Equal(t, 0, m.TrackedJobs())
}

func TestDiscardRemovesDirectory(t *testing.T) {
	m := newTestManager(t)
	job, err := m.Allocate(testRef, model.QualityBest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(job.Dir, "clip.mp4.part"), []byte("x"), 0o600))

	m.Discard(job.ID)
	assert.NoDirExists(t, job.Dir)
	_, ok := m.Job(job.ID)
	assert.False(t, ok)

	m.Discard(job.ID)
}

func TestCompleteRequiresRunningJob(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.Complete("missing", "clip.mp4", 1), ErrArtifactNotFound)

	job := completeJob(t, m, "clip.mp4", "x")
	assert.ErrorIs(t, m.Complete(job.ID, "clip.mp4", 1), ErrArtifactNotFound)
}

func TestCleanupExpiredJobs(t *testing.T) {
	m := newTestManager(t)
	stale := completeJob(t, m, "old.mp4", "x")
	fresh := completeJob(t, m, "new.mp4", "x")
	running, err := m.Allocate(testRef, model.QualityBest)
	require.NoError(t, err)

	m.mu.Lock()
	m.jobs[stale.ID].CompletedAt = time.Now().Add(-2 * time.Minute)
	m.mu.Unlock()

	m.cleanupExpiredJobs(time.Now())

	assert.NoDirExists(t, stale.Dir)
	assert.DirExists(t, fresh.Dir)
	assert.DirExists(t, running.Dir)
	assert.Equal(t, 2, m.TrackedJobs())
}

func TestStartRemovesOrphans(t *testing.T) {
	m := newTestManager(t)
	jobOrphan := filepath.Join(m.Root(), "6f1c2a4e-8b1d-4c3e-9a7f-0d2b5e6c7a81")
	captionsOrphan := filepath.Join(m.Root(), CaptionsScratch+"-123456")
	for _, dir := range []string{jobOrphan, captionsOrphan} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o600))
	}

	require.NoError(t, m.Start())
	defer m.Stop()

	assert.NoDirExists(t, jobOrphan)
	assert.NoDirExists(t, captionsOrphan)
}

func TestStartKeepsUnrelatedEntries(t *testing.T) {
	m := newTestManager(t)
	foreignDir := filepath.Join(m.Root(), "systemd-private-abc")
	foreignFile := filepath.Join(m.Root(), "unrelated.txt")
	uuidFile := filepath.Join(m.Root(), "0e9d6c1a-3b2f-4a5e-8c7d-1f2e3a4b5c6d")
	bareCaptions := filepath.Join(m.Root(), CaptionsScratch+"-")
	require.NoError(t, os.MkdirAll(foreignDir, 0o755))
	require.NoError(t, os.MkdirAll(bareCaptions, 0o755))
	require.NoError(t, os.WriteFile(foreignFile, []byte("keep"), 0o600))
	require.NoError(t, os.WriteFile(uuidFile, []byte("keep"), 0o600))

	require.NoError(t, m.Start())
	defer m.Stop()

	assert.DirExists(t, foreignDir)
	assert.DirExists(t, bareCaptions)
	assert.FileExists(t, foreignFile)
	assert.FileExists(t, uuidFile)
}

func TestIsManagedName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"6f1c2a4e-8b1d-4c3e-9a7f-0d2b5e6c7a81", true},
		{"captions-98765", true},
		{"captions-", false},
		{"captions", false},
		{"{6f1c2a4e-8b1d-4c3e-9a7f-0d2b5e6c7a81}", false},
		{"6f1c2a4e8b1d4c3e9a7f0d2b5e6c7a81", false},
		{"go-build123", false},
		{".X11-unix", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isManagedName(tt.name))
		})
	}
}

func TestStartStopWithRoutine(t *testing.T) {
	m := newTestManager(t)
	m.cfg.CleanupInterval = 1

	require.NoError(t, m.Start())
	m.Stop()
	m.Stop()
}

func TestScratchDirectories(t *testing.T) {
	m := newTestManager(t)

	dir, err := m.AllocateScratch("captions")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, m.Root(), filepath.Dir(dir))

	m.RemoveScratch(dir)
	assert.NoDirExists(t, dir)

	outside := t.TempDir()
	m.RemoveScratch(outside)
	assert.DirExists(t, outside)
}

func TestValidateFileSize(t *testing.T) {
	m := newTestManager(t)
	assert.True(t, m.ValidateFileSize(1024*1024))
	assert.False(t, m.ValidateFileSize(1024*1024+1))

	m.cfg.MaxVideoSizeMB = 0
	assert.True(t, m.ValidateFileSize(1<<40))
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/scratch/job", "/scratch/job/clip.mp4"))
	assert.True(t, within("/scratch/job", "/scratch/job/..clip.mp4"))
	assert.False(t, within("/scratch/job", "/scratch/job"))
	assert.False(t, within("/scratch/job", "/scratch/job/../other/clip.mp4"))
	assert.False(t, within("/scratch/job", "/scratch/jobber/clip.mp4"))
}
