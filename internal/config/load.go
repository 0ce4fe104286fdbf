package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

// fileConfig mirrors Config with pointers so an absent key keeps the lower
// layer's value.
type fileConfig struct {
	Version  *int         `yaml:"version"`
	Tool     fileTool     `yaml:"tool"`
	Download fileDownload `yaml:"download"`
	Queue    fileQueue    `yaml:"queue"`
	History  fileHistory  `yaml:"history"`
	Log      fileLog      `yaml:"log"`
}

type fileTool struct {
	Binary    *string   `yaml:"binary"`
	ExtraArgs *[]string `yaml:"extra_args"`
}

type fileDownload struct {
	OutputDir          *string `yaml:"output_dir"`
	OutputTemplate     *string `yaml:"output_template"`
	Quality            *string `yaml:"quality"`
	MaxURLs            *int    `yaml:"max_urls"`
	ItemTimeoutSeconds *int    `yaml:"item_timeout_seconds"`
}

type fileQueue struct {
	GraceMillis      *int `yaml:"grace_millis"`
	PollMillis       *int `yaml:"poll_millis"`
	ReaderJoinMillis *int `yaml:"reader_join_millis"`
}

type fileHistory struct {
	Enabled  *bool   `yaml:"enabled"`
	StateDir *string `yaml:"state_dir"`
}

type fileLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// Load layers defaults, the user file, the project file (or only the explicit
// file when one is given) and YTQ_* environment overrides.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	normalize(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Version != nil {
		cfg.Version = *fc.Version
	}
	setString(&cfg.Tool.Binary, fc.Tool.Binary)
	if fc.Tool.ExtraArgs != nil {
		cfg.Tool.ExtraArgs = append([]string{}, (*fc.Tool.ExtraArgs)...)
	}

	setString(&cfg.Download.OutputDir, fc.Download.OutputDir)
	setString(&cfg.Download.OutputTemplate, fc.Download.OutputTemplate)
	setString(&cfg.Download.Quality, fc.Download.Quality)
	setInt(&cfg.Download.MaxURLs, fc.Download.MaxURLs)
	setInt(&cfg.Download.ItemTimeoutSeconds, fc.Download.ItemTimeoutSeconds)

	setInt(&cfg.Queue.GraceMillis, fc.Queue.GraceMillis)
	setInt(&cfg.Queue.PollMillis, fc.Queue.PollMillis)
	setInt(&cfg.Queue.ReaderJoinMillis, fc.Queue.ReaderJoinMillis)

	if fc.History.Enabled != nil {
		cfg.History.Enabled = *fc.History.Enabled
	}
	setString(&cfg.History.StateDir, fc.History.StateDir)

	setString(&cfg.Log.Level, fc.Log.Level)
	setString(&cfg.Log.Format, fc.Log.Format)
	return nil
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	if value := strings.TrimSpace(env["YTQ_YTDLP_BIN"]); value != "" {
		cfg.Tool.Binary = value
	}
	if value := strings.TrimSpace(env["YTQ_OUTPUT_DIR"]); value != "" {
		cfg.Download.OutputDir = value
	}
	if value := strings.TrimSpace(env["YTQ_QUALITY"]); value != "" {
		cfg.Download.Quality = value
	}
	if value := strings.TrimSpace(env["YTQ_MAX_URLS"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid YTQ_MAX_URLS value %q: %w", value, err)
		}
		cfg.Download.MaxURLs = parsed
	}
	if value := strings.TrimSpace(env["YTQ_ITEM_TIMEOUT_SECONDS"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid YTQ_ITEM_TIMEOUT_SECONDS value %q: %w", value, err)
		}
		cfg.Download.ItemTimeoutSeconds = parsed
	}
	if value := strings.TrimSpace(env["YTQ_HISTORY"]); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid YTQ_HISTORY value %q: %w", value, err)
		}
		cfg.History.Enabled = parsed
	}
	if value := strings.TrimSpace(env["YTQ_STATE_DIR"]); value != "" {
		cfg.History.StateDir = value
	}
	if value := strings.TrimSpace(env["YTQ_LOG_LEVEL"]); value != "" {
		cfg.Log.Level = value
	}
	if value := strings.TrimSpace(env["YTQ_LOG_FORMAT"]); value != "" {
		cfg.Log.Format = value
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Tool.Binary = strings.TrimSpace(cfg.Tool.Binary)
	if cfg.Tool.Binary == "" {
		cfg.Tool.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Download.OutputTemplate) == "" {
		cfg.Download.OutputTemplate = DefaultOutputTemplate
	}
	cfg.Download.Quality = strings.TrimSpace(cfg.Download.Quality)
	if cfg.Download.Quality == "" {
		cfg.Download.Quality = DefaultQuality
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func setInt(dst *int, value *int) {
	if value != nil {
		*dst = *value
	}
}
