package source

import (
	"testing"

	"videotranscriber/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRejectsInvalidInput(t *testing.T) {
	inputs := []string{
		"",
		"not a url",
		"ftp://youtube.com/watch?v=abc",
		"file:///etc/passwd",
		"javascript:alert(1)",
		"youtube.com/watch?v=abc",
		"https:youtube.com",
		"http://",
		"https:///watch?v=abc",
		"http://:8080/x",
		"http://exa mple.com/",
		"http://example.com:port/",
		"http://[::1/",
		"http://-bad-.com/",
		"http://a..b.com/",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Classify(in)
			require.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestClassifyKnownHosts(t *testing.T) {
	tests := []struct {
		url      string
		platform model.Platform
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", model.PlatformYouTube},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ", model.PlatformYouTube},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", model.PlatformYouTube},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", model.PlatformYouTube},
		{"https://youtu.be/dQw4w9WgXcQ", model.PlatformYouTube},
		{"https://www.tiktok.com/@user/video/123", model.PlatformTikTok},
		{"https://vm.tiktok.com/ZM123/", model.PlatformTikTok},
		{"https://www.instagram.com/reel/abc/", model.PlatformInstagram},
		{"https://x.com/user/status/1", model.PlatformTwitter},
		{"https://twitter.com/user/status/1", model.PlatformTwitter},
		{"https://fb.watch/abc/", model.PlatformFacebook},
		{"https://old.reddit.com/r/videos/comments/x/", model.PlatformReddit},
		{"https://clips.twitch.tv/Clip", model.PlatformTwitch},
		{"https://vimeo.com/123", model.PlatformVimeo},
		{"https://www.dailymotion.com/video/x1", model.PlatformDailymotion},
		{"https://soundcloud.com/a/b", model.PlatformSoundCloud},
		{"https://www.bilibili.com/video/BV1", model.PlatformBilibili},
		{"HTTPS://WWW.YOUTUBE.COM/watch?v=abc", model.PlatformYouTube},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			ref, err := Classify(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.platform, ref.Platform)
		})
	}
}

func TestClassifyUnknownHostIsOther(t *testing.T) {
	for _, in := range []string{
		"https://example.com/video.mp4",
		"http://192.168.1.10:8080/stream",
		"https://[::1]:8443/v",
		"https://notyoutube.com/watch?v=abc",
		"https://box.com/file",
	} {
		ref, err := Classify(in)
		require.NoError(t, err, in)
		assert.Equal(t, model.PlatformOther, ref.Platform, in)
		assert.Empty(t, ref.VideoID, in)
	}
}

func TestClassifyYouTubeVideoID(t *testing.T) {
	tests := []struct {
		url string
		id  string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=xyz", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc123/", "abc123"},
		{"https://www.youtube.com/embed/xyz789", "xyz789"},
		{"https://www.youtube.com/", ""},
		{"https://youtu.be/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			ref, err := Classify(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.id, ref.VideoID)
		})
	}
}

func TestClassifyNormalizesURL(t *testing.T) {
	ref, err := Classify("  HTTPS://WWW.YouTube.com/watch?v=abc#comments ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", ref.URL)
}
