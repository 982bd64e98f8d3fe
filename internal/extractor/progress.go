package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"videotranscriber/internal/model"
)

const (
	mergeMarker       = "Merging"
	destinationMarker = "Destination:"
	startingDetail    = "Starting download..."
)

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// partialSuffixes mark files the extractor is still writing or has abandoned.
var partialSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

// TranslateLine maps one line of extractor output to a progress event.
// Lines that carry no progress information report false.
func TranslateLine(line string) (model.ProgressEvent, bool) {
	if m := percentPattern.FindStringSubmatch(line); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			return model.ProgressEvent{Status: model.StatusDownloading, Progress: pct}, true
		}
	}
	if strings.Contains(line, mergeMarker) {
		return model.ProgressEvent{Status: model.StatusMerging, Progress: 100}, true
	}
	if strings.Contains(line, destinationMarker) {
		return model.ProgressEvent{Status: model.StatusStarted, Detail: startingDetail}, true
	}
	return model.ProgressEvent{}, false
}

// IsPartial reports whether name is an in-progress or fragment file.
func IsPartial(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, ".part-frag") {
		return true
	}
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
