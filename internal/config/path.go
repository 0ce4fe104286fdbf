package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func UserConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); strings.TrimSpace(xdg) != "" {
		return filepath.Join(xdg, "ytq", "config.yaml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ytq", "config.yaml"), nil
}

func ProjectConfigPath(cwd string) string {
	return filepath.Join(cwd, "ytq.yaml")
}

func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); strings.TrimSpace(xdg) != "" {
		return filepath.Join(xdg, "ytq")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./.ytq-state"
	}
	return filepath.Join(home, ".local", "state", "ytq")
}

func defaultOutputDir() string {
	if xdg := os.Getenv("XDG_DOWNLOAD_DIR"); strings.TrimSpace(xdg) != "" {
		return filepath.Join(xdg, "YouTube")
	}
	return "~/Downloads/YouTube"
}

// ExpandPath expands environment variables and a leading "~".
func ExpandPath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(strings.TrimSpace(raw))
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~/"))
	}

	return filepath.Clean(expanded), nil
}

// HistoryPath is the SQLite file inside the state directory.
func HistoryPath(stateDir string) (string, error) {
	dir, err := ExpandPath(stateDir)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = defaultStateDir()
	}
	return filepath.Join(dir, "history.db"), nil
}
