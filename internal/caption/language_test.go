package caption

import (
	"testing"

	"videotranscriber/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"en-US", "English (US)"},
		{"zh-Hant", "Chinese (Traditional)"},
		{"es-419", "Spanish (Latin America)"},
		{"en-NZ", "English (NZ)"},
		{"de-x-formal", "German (x-formal)"},
		{"xx-YY", "xx-YY"},
		{"xx", "xx"},
		{"", ""},
		{"EN", "EN"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, LanguageName(tt.code))
		})
	}
}

func TestTracksPrefersManual(t *testing.T) {
	got := Tracks([]string{"en", "fr"}, []string{"de", "en", "fr", "ja"})
	want := []model.LanguageTrack{
		{Code: "en", Name: "English"},
		{Code: "fr", Name: "French"},
		{Code: "de", Name: "German (auto)", IsAuto: true},
		{Code: "ja", Name: "Japanese (auto)", IsAuto: true},
	}
	assert.Equal(t, want, got)
}

func TestTracksEmpty(t *testing.T) {
	assert.Empty(t, Tracks(nil, nil))
}
