package config

import "fmt"

func DefaultTemplate() string {
	return fmt.Sprintf(`version: 1
tool:
  binary: %q
  extra_args: []
download:
  output_dir: %q
  output_template: %q
  # best, merged, 720p, 480p, audio, or a raw yt-dlp format selector
  quality: %q
  max_urls: %d
  item_timeout_seconds: 0
queue:
  grace_millis: 500
  poll_millis: 100
  reader_join_millis: 1000
history:
  enabled: true
  state_dir: %q
log:
  level: "info"
  format: "console"
`, DefaultBinary, defaultOutputDir(), DefaultOutputTemplate, DefaultQuality, DefaultMaxURLs, defaultStateDir())
}
