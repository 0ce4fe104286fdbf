package compact

import (
	"path/filepath"
	"regexp"
	"strings"
)

var downloadDestinationPattern = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
var alreadyDownloadedPattern = regexp.MustCompile(`^\[download\] (.+) has already been downloaded$`)
var mergerPattern = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
var extractAudioPattern = regexp.MustCompile(`^\[ExtractAudio\] Destination: (.+)$`)
var formatSuffixPattern = regexp.MustCompile(`\.f[0-9]+$`)
var extractorPattern = regexp.MustCompile(`^\[(youtube|youtube:tab|info)\] `)

type LineEventKind string

const (
	LineEventDestination       LineEventKind = "destination"
	LineEventAlreadyDownloaded LineEventKind = "already_downloaded"
	LineEventMerging           LineEventKind = "merging"
	LineEventExtractAudio      LineEventKind = "extract_audio"
	LineEventDeleting          LineEventKind = "deleting"
	LineEventExtractor         LineEventKind = "extractor"
)

type LineEvent struct {
	Kind LineEventKind
	Text string
}

// ParseLine recognises the yt-dlp stdout lines that change what the live
// progress line shows. Everything else is reported as unmatched.
func ParseLine(line string) (LineEvent, bool) {
	line = strings.TrimSpace(line)
	if match := downloadDestinationPattern.FindStringSubmatch(line); len(match) == 2 {
		return LineEvent{Kind: LineEventDestination, Text: strings.TrimSpace(match[1])}, true
	}
	if match := alreadyDownloadedPattern.FindStringSubmatch(line); len(match) == 2 {
		return LineEvent{Kind: LineEventAlreadyDownloaded, Text: strings.TrimSpace(match[1])}, true
	}
	if match := mergerPattern.FindStringSubmatch(line); len(match) == 2 {
		return LineEvent{Kind: LineEventMerging, Text: strings.TrimSpace(match[1])}, true
	}
	if match := extractAudioPattern.FindStringSubmatch(line); len(match) == 2 {
		return LineEvent{Kind: LineEventExtractAudio, Text: strings.TrimSpace(match[1])}, true
	}
	if strings.HasPrefix(line, "Deleting original file ") {
		return LineEvent{Kind: LineEventDeleting}, true
	}
	if extractorPattern.MatchString(line) {
		return LineEvent{Kind: LineEventExtractor, Text: line}, true
	}
	return LineEvent{}, false
}

// TitleFromPath turns an output file path into a display title.
func TitleFromPath(pathLike string) string {
	trimmed := strings.Trim(strings.TrimSpace(pathLike), "\"")
	base := filepath.Base(trimmed)
	ext := filepath.Ext(base)
	if ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	// intermediate streams look like "title.f137"
	return formatSuffixPattern.ReplaceAllString(base, "")
}
