package ytdlp

import "strings"

// AudioSelector is the selector that switches the invocation to audio
// extraction instead of a -f format selection.
const AudioSelector = "bestaudio/best"

type Preset struct {
	Name        string `json:"name"`
	Selector    string `json:"selector"`
	Description string `json:"description"`
	NeedsFFmpeg bool   `json:"needs_ffmpeg"`
}

var presets = []Preset{
	{Name: "best", Selector: "best[ext=mp4]/best", Description: "best single file (no merge)"},
	{Name: "merged", Selector: "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best", Description: "best video and audio merged into mp4", NeedsFFmpeg: true},
	{Name: "720p", Selector: "best[height<=720]", Description: "single file up to 720p"},
	{Name: "480p", Selector: "best[height<=480]", Description: "single file up to 480p"},
	{Name: "audio", Selector: AudioSelector, Description: "audio only, converted to mp3 192k", NeedsFFmpeg: true},
}

func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// ResolveSelector maps a preset name to its selector. Anything else is taken
// as a raw selector and returned trimmed.
func ResolveSelector(nameOrRaw string) string {
	trimmed := strings.TrimSpace(nameOrRaw)
	for _, preset := range presets {
		if strings.EqualFold(preset.Name, trimmed) {
			return preset.Selector
		}
	}
	return trimmed
}

func IsAudioSelector(selector string) bool {
	return strings.TrimSpace(selector) == AudioSelector
}

// NeedsFFmpeg reports whether yt-dlp will have to merge or convert streams.
func NeedsFFmpeg(selector string) bool {
	return strings.Contains(selector, "bestvideo") || strings.Contains(selector, "bestaudio")
}
