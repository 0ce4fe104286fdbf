// Package ytdlp builds yt-dlp invocations for the download engine.
package ytdlp

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jaa/ytqueue/internal/config"
	"github.com/jaa/ytqueue/internal/engine"
)

const ProgressTemplate = "%(progress.percentage)s;%(progress.speed)s;%(progress.eta)s"

type Adapter struct {
	Binary         string
	OutputDir      string
	OutputTemplate string
	ExtraArgs      []string
}

func New(cfg config.Config) (*Adapter, error) {
	outputDir, err := config.ExpandPath(cfg.Download.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		Binary:         cfg.Tool.Binary,
		OutputDir:      outputDir,
		OutputTemplate: cfg.Download.OutputTemplate,
		ExtraArgs:      append([]string{}, cfg.Tool.ExtraArgs...),
	}, nil
}

func (a *Adapter) BuildExecSpec(identifier, selector string) (engine.ExecSpec, error) {
	if strings.TrimSpace(identifier) == "" {
		return engine.ExecSpec{}, errors.New("empty identifier")
	}
	if strings.TrimSpace(a.OutputDir) == "" {
		return engine.ExecSpec{}, errors.New("output directory is not set")
	}
	template := a.OutputTemplate
	if strings.TrimSpace(template) == "" {
		template = config.DefaultOutputTemplate
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = ResolveSelector(config.DefaultQuality)
	}

	args := []string{
		"--progress",
		"--progress-template", ProgressTemplate,
		"-o", filepath.Join(a.OutputDir, template),
		"--no-warnings",
		"--encoding", "utf-8",
		"--no-check-certificate",
	}
	if IsAudioSelector(selector) {
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", "192")
	} else {
		args = append(args, "-f", selector)
	}
	args = append(args, a.ExtraArgs...)
	args = append(args, identifier)

	bin := a.Binary
	if strings.TrimSpace(bin) == "" {
		bin = config.DefaultBinary
	}
	return engine.ExecSpec{
		Bin:            bin,
		Args:           args,
		Dir:            a.OutputDir,
		DisplayCommand: formatCommand(bin, args),
	}, nil
}

func formatCommand(bin string, args []string) string {
	parts := []string{quoteArg(bin)}
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\"'&;|<>()[]*?$") {
		return fmt.Sprintf("%q", arg)
	}
	return arg
}
