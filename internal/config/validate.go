package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

var validLogLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}, "off": {},
}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	if strings.TrimSpace(cfg.Tool.Binary) == "" {
		problems = append(problems, "tool.binary must be set")
	}
	for _, arg := range cfg.Tool.ExtraArgs {
		if strings.TrimSpace(arg) == "" {
			problems = append(problems, "tool.extra_args must not contain empty values")
			break
		}
	}

	outputDir, err := ExpandPath(cfg.Download.OutputDir)
	if err != nil || strings.TrimSpace(outputDir) == "" {
		problems = append(problems, "download.output_dir must be a valid path")
	} else if !filepath.IsAbs(outputDir) {
		problems = append(problems, "download.output_dir must resolve to an absolute path")
	}
	if !strings.Contains(cfg.Download.OutputTemplate, "%(") {
		problems = append(problems, "download.output_template must contain at least one %(field)s placeholder")
	}
	if strings.ContainsAny(cfg.Download.OutputTemplate, "/\\") {
		problems = append(problems, "download.output_template must be a file name, not a path")
	}
	if strings.TrimSpace(cfg.Download.Quality) == "" {
		problems = append(problems, "download.quality must be set")
	}
	if cfg.Download.MaxURLs < 0 {
		problems = append(problems, "download.max_urls must be >= 0")
	}
	if cfg.Download.ItemTimeoutSeconds < 0 {
		problems = append(problems, "download.item_timeout_seconds must be >= 0")
	}

	if cfg.Queue.GraceMillis <= 0 {
		problems = append(problems, "queue.grace_millis must be > 0")
	}
	if cfg.Queue.PollMillis <= 0 || cfg.Queue.PollMillis > 200 {
		problems = append(problems, "queue.poll_millis must be between 1 and 200")
	}
	if cfg.Queue.ReaderJoinMillis <= 0 {
		problems = append(problems, "queue.reader_join_millis must be > 0")
	}

	if cfg.History.Enabled {
		stateDir, err := ExpandPath(cfg.History.StateDir)
		if err != nil || strings.TrimSpace(stateDir) == "" {
			problems = append(problems, "history.state_dir must be a valid path")
		} else if !filepath.IsAbs(stateDir) {
			problems = append(problems, "history.state_dir must resolve to an absolute path")
		}
	}

	if _, ok := validLogLevels[cfg.Log.Level]; !ok {
		problems = append(problems, fmt.Sprintf("log.level %q is not one of trace, debug, info, warn, error, off", cfg.Log.Level))
	}
	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", cfg.Log.Format))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
