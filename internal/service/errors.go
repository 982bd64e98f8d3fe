package service

import (
	"errors"

	"videotranscriber/internal/model"
)

var (
	ErrInvalidLanguage = errors.New("invalid language code")
	ErrInvalidQuality  = errors.New("invalid or disabled quality")
)

// NoCaptionsError reports that the extractor produced no caption track for
// the requested language
type NoCaptionsError struct {
	Platform model.Platform
}

func (e *NoCaptionsError) Error() string {
	if e.Platform == model.PlatformTikTok {
		return "No transcript available. TikTok videos typically don't have subtitles."
	}
	return "No subtitles found for this video in the selected language."
}
