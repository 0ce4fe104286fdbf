package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jaa/ytqueue/internal/config"
	"github.com/jaa/ytqueue/internal/logging"
	"github.com/rs/zerolog"
)

func loadConfig(app *AppContext) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		ExplicitPath: strings.TrimSpace(app.Opts.ConfigPath),
		WorkingDir:   wd,
	})
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the diagnostics logger. --verbose forces debug and --quiet
// limits it to errors.
func newLogger(app *AppContext, cfg config.Config) zerolog.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Out = app.IO.ErrOut
	logCfg.Format = cfg.Log.Format
	if level, ok := logging.ParseLevel(cfg.Log.Level); ok {
		logCfg.Level = level
	}
	switch {
	case app.Opts.Verbose:
		logCfg.Level = zerolog.DebugLevel
	case app.Opts.Quiet && logCfg.Level < zerolog.ErrorLevel:
		logCfg.Level = zerolog.ErrorLevel
	}
	return logging.New(logCfg)
}

func withLogger(ctx context.Context, app *AppContext, cfg config.Config) context.Context {
	return logging.WithContext(ctx, newLogger(app, cfg))
}

func isTTY(file *os.File) bool {
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// canPrompt reports whether the user can answer a question on stdin.
func canPrompt(app *AppContext) bool {
	if app.Opts.NoInput || app.Opts.JSON {
		return false
	}
	file, ok := app.IO.In.(*os.File)
	return ok && isTTY(file)
}

func promptYesNo(app *AppContext, prompt string) (bool, error) {
	fmt.Fprintf(app.IO.Out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(app.IO.In)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}
