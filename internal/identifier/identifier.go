package identifier

import (
	"errors"
	"regexp"
	"strings"
)

// ErrRejected marks a string that was filtered out before reaching the queue.
// It is a filtering outcome, never a run failure.
var ErrRejected = errors.New("identifier rejected")

// Matching is anchored at the start only: trailing text after a valid id is
// accepted, the same lenient behaviour the desktop tool always had.
var acceptedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i:https?://(?:www\.|m\.)?youtube\.com)/watch\?v=[A-Za-z0-9_-]{11}`),
	regexp.MustCompile(`^(?i:https?://(?:www\.|m\.)?youtube\.com)/shorts/[A-Za-z0-9_-]{11}`),
	regexp.MustCompile(`^(?i:https?://(?:www\.)?youtu\.be)/[A-Za-z0-9_-]{11}`),
	regexp.MustCompile(`^(?i:https?://(?:www\.|m\.)?youtube\.com)/playlist\?list=[A-Za-z0-9_-]+`),
}

var lineNumberPattern = regexp.MustCompile(`^\d+\.\s*`)

var sentinelTokens = []string{"VIDEO_ID", "PLAYLIST_ID"}

var placeholderPrefixes = []string{"example", "e.g.", "paste "}

// IsValid reports whether s is an identifier the downloader accepts.
func IsValid(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, token := range sentinelTokens {
		if strings.Contains(s, token) {
			return false
		}
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range placeholderPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	for _, pattern := range acceptedPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// Candidate is one non-empty input line after list numbering was stripped.
type Candidate struct {
	Line  int
	Value string
	Valid bool
}

// ParseLines splits free text into candidates, keeping order. Blank lines and
// lines starting with '#' are skipped; a leading "12. " list number is removed.
func ParseLines(text string) []Candidate {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	candidates := make([]Candidate, 0, len(lines))
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		value := lineNumberPattern.ReplaceAllString(line, "")
		if value == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Line:  i + 1,
			Value: value,
			Valid: IsValid(value),
		})
	}
	return candidates
}

// Extract returns the valid identifiers found in text, in order of appearance.
func Extract(text string) []string {
	ids := []string{}
	for _, candidate := range ParseLines(text) {
		if candidate.Valid {
			ids = append(ids, candidate.Value)
		}
	}
	return ids
}

// Normalize returns the identifier as it is stored in the queue.
func Normalize(s string) string {
	return lineNumberPattern.ReplaceAllString(strings.TrimSpace(s), "")
}
