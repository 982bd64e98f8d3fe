// Package caption turns WebVTT subtitle tracks into ordered transcript
// segments and resolves caption language codes to display names.
package caption

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"videotranscriber/internal/model"
)

const cueArrow = "-->"

var (
	cueTimingPattern = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`)
	markupPattern    = regexp.MustCompile(`<[^>]+>`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// ParseVTT converts a WebVTT document into transcript segments.
//
// Blocks without a timing line (the header, NOTE and STYLE blocks) are skipped,
// inline tags are stripped and a segment repeating the text of the one before
// it is dropped. Durations are end minus start and are not clamped, so an
// inverted cue yields a negative duration.
func ParseVTT(vtt string) []model.CaptionSegment {
	vtt = strings.ReplaceAll(vtt, "\r\n", "\n")
	vtt = strings.ReplaceAll(vtt, "\r", "\n")

	var segments []model.CaptionSegment
	for _, block := range strings.Split(vtt, "\n\n") {
		seg, ok := parseCue(block)
		if !ok {
			continue
		}
		if n := len(segments); n > 0 && segments[n-1].Text == seg.Text {
			continue
		}
		segments = append(segments, seg)
	}
	return segments
}

func parseCue(block string) (model.CaptionSegment, bool) {
	lines := strings.Split(strings.TrimSpace(block), "\n")

	timing := -1
	for i, line := range lines {
		if strings.Contains(line, cueArrow) {
			timing = i
			break
		}
	}
	if timing == -1 {
		return model.CaptionSegment{}, false
	}

	m := cueTimingPattern.FindStringSubmatch(lines[timing])
	if m == nil {
		return model.CaptionSegment{}, false
	}

	text := CleanText(strings.Join(lines[timing+1:], " "))
	if text == "" {
		return model.CaptionSegment{}, false
	}

	startMs := timestampMillis(m[1:5])
	endMs := timestampMillis(m[5:9])
	return model.CaptionSegment{
		Start:    float64(startMs) / 1000,
		Duration: float64(endMs-startMs) / 1000,
		Text:     text,
	}, true
}

// CleanText strips inline cue markup, including per-word timing tags, and
// collapses whitespace.
func CleanText(s string) string {
	s = markupPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// timestampMillis expects the four digit groups captured by cueTimingPattern.
func timestampMillis(parts []string) int64 {
	var n [4]int64
	for i, p := range parts {
		n[i], _ = strconv.ParseInt(p, 10, 64)
	}
	return n[0]*3_600_000 + n[1]*60_000 + n[2]*1_000 + n[3]
}

// FormatVTT renders segments back into a WebVTT document.
func FormatVTT(segments []model.CaptionSegment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for _, seg := range segments {
		start := millis(seg.Start)
		end := start + millis(seg.Duration)
		fmt.Fprintf(&b, "\n%s --> %s\n%s\n", formatTimestamp(start), formatTimestamp(end), seg.Text)
	}
	return b.String()
}

// PlainText renders one segment per line.
func PlainText(segments []model.CaptionSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func millis(seconds float64) int64 {
	if seconds < 0 {
		return int64(seconds*1000 - 0.5)
	}
	return int64(seconds*1000 + 0.5)
}

func formatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1_000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1_000)
}
