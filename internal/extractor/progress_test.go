package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"videotranscriber/internal/model"
)

func TestTranslateLine(t *testing.T) {
	tests := []struct {
		line string
		want model.ProgressEvent
		ok   bool
	}{
		{"[download]  45.3% of 10.00MiB at 1.00MiB/s ETA 00:05", model.ProgressEvent{Status: model.StatusDownloading, Progress: 45.3}, true},
		{"[download] 100% of 10.00MiB", model.ProgressEvent{Status: model.StatusDownloading, Progress: 100}, true},
		{`[Merger] Merging formats into "clip.mp4"`, model.ProgressEvent{Status: model.StatusMerging, Progress: 100}, true},
		{"[download] Destination: /tmp/x/clip.f137.mp4", model.ProgressEvent{Status: model.StatusStarted, Detail: "Starting download..."}, true},
		{"[youtube] abc: Downloading webpage", model.ProgressEvent{}, false},
		{"", model.ProgressEvent{}, false},
	}

	for _, tt := range tests {
		got, ok := TranslateLine(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestTranslateLinePercentWinsOverMarkers(t *testing.T) {
	got, ok := TranslateLine("[download] Destination: 50% done")
	assert.True(t, ok)
	assert.Equal(t, model.StatusDownloading, got.Status)
	assert.Equal(t, 50.0, got.Progress)
}

func TestIsPartial(t *testing.T) {
	partial := []string{"clip.mp4.part", "clip.mp4.ytdl", "clip.temp", "clip.mp4.part-Frag12", "clip.f137.mp4.part-Frag3.part", "CLIP.PART"}
	for _, name := range partial {
		assert.True(t, IsPartial(name), name)
	}

	complete := []string{"clip.mp4", "clip.m4a", "partial clip.mp4", "clip.party.webm"}
	for _, name := range complete {
		assert.False(t, IsPartial(name), name)
	}
}
