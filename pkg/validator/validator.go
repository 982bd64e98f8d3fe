package validator

import (
	"regexp"
	"strings"

	"videotranscriber/internal/model"
)

// languageCodePattern admits extractor track codes such as en, en-US,
// zh-Hans and en-orig. A leading dash is refused so the code can never be
// read as an option.
var languageCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,34}$`)

// ValidateLanguageCode validates a caption language code
func ValidateLanguageCode(code string) bool {
	return languageCodePattern.MatchString(code)
}

// ValidateQuality parses a quality selector and checks it is enabled.
// An empty enabled list allows every known selector.
func ValidateQuality(raw string, enabled []model.Quality) (model.Quality, bool) {
	q := model.Quality(strings.ToLower(strings.TrimSpace(raw)))
	known := false
	for _, candidate := range model.AllQualities {
		if q == candidate {
			known = true
			break
		}
	}
	if !known {
		return "", false
	}
	if len(enabled) == 0 {
		return q, true
	}
	for _, allowed := range enabled {
		if q == allowed {
			return q, true
		}
	}
	return "", false
}

// SafePathComponent reports whether s can be joined to a directory without
// leaving it: non-empty, no separators or NUL, and not a dot entry
func SafePathComponent(s string) bool {
	if s == "" || s == "." || s == ".." || len(s) > 255 {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}

// SanitizeFilename removes dangerous characters from filename
func SanitizeFilename(filename string) string {
	dangerousChars := []string{"<", ">", ":", "\"", "/", "\\", "|", "?", "*", "\x00"}
	result := filename
	for _, char := range dangerousChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	return result
}

// TruncateFilename truncates filename to max length while preserving extension
// Uses rune-level truncation to properly handle UTF-8 multi-byte characters
func TruncateFilename(filename string, maxLen int) string {
	runes := []rune(filename)
	if len(runes) <= maxLen {
		return filename
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot == -1 {
		return string(runes[:maxLen])
	}

	extRunes := []rune(filename[lastDot:])
	availableLen := maxLen - len(extRunes)
	if availableLen <= 0 {
		return string(runes[:maxLen])
	}
	return string(runes[:availableLen]) + string(extRunes)
}
