package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotranscriber/internal/extractor"
	"videotranscriber/internal/model"
)

const sampleVTT = "WEBVTT\n\n00:00:01.000 --> 00:00:03.500\n<c>Hello</c> world\n\n00:00:03.500 --> 00:00:05.000\nHello world\n\n00:00:05.000 --> 00:00:06.250\nSecond line\n"

func TestFetchCaptionsExactTrack(t *testing.T) {
	sm := newTestStorage(t, 0)
	runner := &fakeCollector{files: map[string]string{"subs.en.vtt": sampleVTT, "subs.en-US.vtt": "WEBVTT\n"}}
	svc := NewTranscriptService(runner, sm)

	segments, err := svc.FetchCaptions(context.Background(), youTubeRef, "en")
	require.NoError(t, err)
	assert.Equal(t, []model.CaptionSegment{
		{Start: 1, Duration: 2.5, Text: "Hello world"},
		{Start: 5, Duration: 1.25, Text: "Second line"},
	}, segments)

	args := runner.calls[0]
	assert.Contains(t, args, "--write-auto-sub")
	assert.Contains(t, args, "en")
	assert.Empty(t, scratchEntries(t, sm))
}

func TestFetchCaptionsFallsBackToAnyTrack(t *testing.T) {
	sm := newTestStorage(t, 0)
	runner := &fakeCollector{files: map[string]string{"subs.en-US.vtt": sampleVTT}}
	svc := NewTranscriptService(runner, sm)

	segments, err := svc.FetchCaptions(context.Background(), youTubeRef, "en")
	require.NoError(t, err)
	assert.Len(t, segments, 2)
	assert.Empty(t, scratchEntries(t, sm))
}

func TestFetchCaptionsNoTrack(t *testing.T) {
	sm := newTestStorage(t, 0)
	svc := NewTranscriptService(&fakeCollector{}, sm)

	_, err := svc.FetchCaptions(context.Background(), youTubeRef, "de")
	var noCaps *NoCaptionsError
	require.True(t, errors.As(err, &noCaps))
	assert.Equal(t, "No subtitles found for this video in the selected language.", err.Error())
	assert.Empty(t, scratchEntries(t, sm))
}

func TestFetchCaptionsTikTokFailureIsNoCaptions(t *testing.T) {
	sm := newTestStorage(t, 0)
	svc := NewTranscriptService(&fakeCollector{err: &extractor.Error{Stderr: "ERROR: no subtitles"}}, sm)

	ref := model.SourceReference{Platform: model.PlatformTikTok, URL: "https://tiktok.com/@u/video/1"}
	_, err := svc.FetchCaptions(context.Background(), ref, "en")
	var noCaps *NoCaptionsError
	require.True(t, errors.As(err, &noCaps))
	assert.Equal(t, "No transcript available. TikTok videos typically don't have subtitles.", err.Error())
}

func TestFetchCaptionsExtractorFailure(t *testing.T) {
	sm := newTestStorage(t, 0)
	svc := NewTranscriptService(&fakeCollector{err: &extractor.Error{Stderr: "ERROR: private video"}}, sm)

	_, err := svc.FetchCaptions(context.Background(), youTubeRef, "en")
	var extErr *extractor.Error
	require.True(t, errors.As(err, &extErr))
	assert.Empty(t, scratchEntries(t, sm))
}

func TestFetchCaptionsRejectsLanguage(t *testing.T) {
	sm := newTestStorage(t, 0)
	runner := &fakeCollector{}
	svc := NewTranscriptService(runner, sm)

	for _, lang := range []string{"", "--exec=touch x", "../en"} {
		_, err := svc.FetchCaptions(context.Background(), youTubeRef, lang)
		assert.ErrorIs(t, err, ErrInvalidLanguage, lang)
	}
	assert.Empty(t, runner.calls)
}
