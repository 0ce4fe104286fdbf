package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// loadDotEnvFiles applies .env and then .env.local from cwd. Variables already
// present in environ are never overridden; .env.local wins over .env.
func loadDotEnvFiles(cwd string, environ []string, setenv func(string, string) error) error {
	if strings.TrimSpace(cwd) == "" {
		return nil
	}
	if setenv == nil {
		return fmt.Errorf("setenv is required")
	}

	protected := map[string]struct{}{}
	for _, pair := range environ {
		key, _, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		protected[key] = struct{}{}
	}

	merged := map[string]string{}
	order := []string{}
	for _, file := range []string{".env", ".env.local"} {
		path := filepath.Join(cwd, file)
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		for key, value := range values {
			if _, seen := merged[key]; !seen {
				order = append(order, key)
			}
			merged[key] = value
		}
	}

	for _, key := range order {
		if _, exists := protected[key]; exists {
			continue
		}
		if err := setenv(key, merged[key]); err != nil {
			return fmt.Errorf("set %s from dotenv: %w", key, err)
		}
	}
	return nil
}
