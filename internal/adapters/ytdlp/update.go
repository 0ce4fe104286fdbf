package ytdlp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type UpdateStatus string

const (
	UpdateUpToDate UpdateStatus = "up_to_date"
	UpdateApplied  UpdateStatus = "updated"
	UpdateUnknown  UpdateStatus = "unknown"
)

type UpdateResult struct {
	Status UpdateStatus `json:"status"`
	Output string       `json:"output"`
}

type commandRunner func(ctx context.Context, bin string, args ...string) (string, error)

func runCombined(ctx context.Context, bin string, args ...string) (string, error) {
	output, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	return string(output), err
}

// SelfUpdate runs "<bin> -U" and classifies what yt-dlp reported.
func SelfUpdate(ctx context.Context, bin string) (UpdateResult, error) {
	return selfUpdate(ctx, bin, runCombined)
}

func selfUpdate(ctx context.Context, bin string, run commandRunner) (UpdateResult, error) {
	output, err := run(ctx, bin, "-U")
	result := UpdateResult{Status: UpdateUnknown, Output: strings.TrimSpace(output)}
	if err != nil {
		return result, fmt.Errorf("%s -U: %w", bin, err)
	}
	switch {
	case strings.Contains(output, "is up to date"):
		result.Status = UpdateUpToDate
	case strings.Contains(output, "Updated yt-dlp to"):
		result.Status = UpdateApplied
	}
	return result, nil
}

// Version returns the first line of "<bin> --version".
func Version(ctx context.Context, bin string) (string, error) {
	output, err := runCombined(ctx, bin, "--version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(line), nil
}
