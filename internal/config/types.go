package config

import "time"

const (
	DefaultBinary         = "yt-dlp"
	DefaultOutputTemplate = "%(uploader)s - %(title)s.%(ext)s"
	DefaultQuality        = "merged"
	DefaultMaxURLs        = 10
)

type Config struct {
	Version  int            `yaml:"version" json:"version" jsonschema:"enum=1"`
	Tool     ToolConfig     `yaml:"tool" json:"tool"`
	Download DownloadConfig `yaml:"download" json:"download"`
	Queue    QueueConfig    `yaml:"queue" json:"queue"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

type ToolConfig struct {
	Binary    string   `yaml:"binary" json:"binary" jsonschema:"description=yt-dlp executable name or path"`
	ExtraArgs []string `yaml:"extra_args,omitempty" json:"extra_args,omitempty" jsonschema:"description=Arguments appended before the identifier"`
}

type DownloadConfig struct {
	OutputDir          string `yaml:"output_dir" json:"output_dir"`
	OutputTemplate     string `yaml:"output_template" json:"output_template"`
	Quality            string `yaml:"quality" json:"quality" jsonschema:"description=Preset name (best merged 720p 480p audio) or a raw format selector"`
	MaxURLs            int    `yaml:"max_urls" json:"max_urls" jsonschema:"minimum=0,description=Maximum initial identifiers per run; 0 means unlimited"`
	ItemTimeoutSeconds int    `yaml:"item_timeout_seconds" json:"item_timeout_seconds" jsonschema:"minimum=0"`
}

type QueueConfig struct {
	GraceMillis      int `yaml:"grace_millis" json:"grace_millis" jsonschema:"minimum=1"`
	PollMillis       int `yaml:"poll_millis" json:"poll_millis" jsonschema:"minimum=1,maximum=200"`
	ReaderJoinMillis int `yaml:"reader_join_millis" json:"reader_join_millis" jsonschema:"minimum=1"`
}

type HistoryConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	StateDir string `yaml:"state_dir" json:"state_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error,enum=off"`
	Format string `yaml:"format" json:"format" jsonschema:"enum=console,enum=json"`
}

func DefaultConfig() Config {
	return Config{
		Version: 1,
		Tool: ToolConfig{
			Binary:    DefaultBinary,
			ExtraArgs: []string{},
		},
		Download: DownloadConfig{
			OutputDir:      defaultOutputDir(),
			OutputTemplate: DefaultOutputTemplate,
			Quality:        DefaultQuality,
			MaxURLs:        DefaultMaxURLs,
		},
		Queue: QueueConfig{
			GraceMillis:      500,
			PollMillis:       100,
			ReaderJoinMillis: 1000,
		},
		History: HistoryConfig{
			Enabled:  true,
			StateDir: defaultStateDir(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (q QueueConfig) Grace() time.Duration {
	return time.Duration(q.GraceMillis) * time.Millisecond
}

func (q QueueConfig) PollInterval() time.Duration {
	return time.Duration(q.PollMillis) * time.Millisecond
}

func (q QueueConfig) ReaderJoinTimeout() time.Duration {
	return time.Duration(q.ReaderJoinMillis) * time.Millisecond
}

func (d DownloadConfig) ItemTimeout() time.Duration {
	return time.Duration(d.ItemTimeoutSeconds) * time.Second
}
