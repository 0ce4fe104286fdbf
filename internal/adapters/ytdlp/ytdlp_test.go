package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/jaa/ytqueue/internal/config"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestBuildExecSpecArgumentOrder(t *testing.T) {
	adapter := &Adapter{
		Binary:         "yt-dlp",
		OutputDir:      "/tmp/videos",
		OutputTemplate: "%(title)s.%(ext)s",
		ExtraArgs:      []string{"--limit-rate", "2M"},
	}
	spec, err := adapter.BuildExecSpec(testURL, ResolveSelector("720p"))
	if err != nil {
		t.Fatalf("build exec spec: %v", err)
	}

	want := []string{
		"--progress",
		"--progress-template", ProgressTemplate,
		"-o", filepath.Join("/tmp/videos", "%(title)s.%(ext)s"),
		"--no-warnings",
		"--encoding", "utf-8",
		"--no-check-certificate",
		"-f", "best[height<=720]",
		"--limit-rate", "2M",
		testURL,
	}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", spec.Args, want)
	}
	if spec.Bin != "yt-dlp" || spec.Dir != "/tmp/videos" {
		t.Fatalf("unexpected bin/dir: %q %q", spec.Bin, spec.Dir)
	}
	if !strings.HasPrefix(spec.DisplayCommand, "yt-dlp --progress") {
		t.Fatalf("unexpected display command: %s", spec.DisplayCommand)
	}
}

func TestBuildExecSpecAudioExtractsMP3(t *testing.T) {
	adapter := &Adapter{Binary: "yt-dlp", OutputDir: "/tmp/videos"}
	spec, err := adapter.BuildExecSpec(testURL, ResolveSelector("audio"))
	if err != nil {
		t.Fatalf("build exec spec: %v", err)
	}
	joined := strings.Join(spec.Args, " ")
	if !strings.Contains(joined, "-x --audio-format mp3 --audio-quality 192") {
		t.Fatalf("expected audio extraction flags, got %s", joined)
	}
	for _, arg := range spec.Args {
		if arg == "-f" {
			t.Fatalf("audio selector must not pass -f: %q", spec.Args)
		}
	}
	if !strings.Contains(joined, config.DefaultOutputTemplate) {
		t.Fatalf("expected default output template, got %s", joined)
	}
}

func TestBuildExecSpecRejectsEmptyInput(t *testing.T) {
	adapter := &Adapter{Binary: "yt-dlp", OutputDir: "/tmp/videos"}
	if _, err := adapter.BuildExecSpec("  ", "best"); err == nil {
		t.Fatalf("expected empty identifier error")
	}
	adapter.OutputDir = ""
	if _, err := adapter.BuildExecSpec(testURL, "best"); err == nil {
		t.Fatalf("expected missing output dir error")
	}
}

func TestBuildExecSpecDefaultsSelector(t *testing.T) {
	adapter := &Adapter{OutputDir: "/tmp/videos"}
	spec, err := adapter.BuildExecSpec(testURL, "")
	if err != nil {
		t.Fatalf("build exec spec: %v", err)
	}
	if spec.Bin != config.DefaultBinary {
		t.Fatalf("expected default binary, got %q", spec.Bin)
	}
	if !containsPair(spec.Args, "-f", ResolveSelector(config.DefaultQuality)) {
		t.Fatalf("expected default selector, got %q", spec.Args)
	}
}

func TestNewExpandsOutputDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg := config.DefaultConfig()
	cfg.Download.OutputDir = "~/clips"
	cfg.Tool.ExtraArgs = []string{"--embed-thumbnail"}

	adapter, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if adapter.OutputDir != filepath.Join(home, "clips") {
		t.Fatalf("unexpected output dir %q", adapter.OutputDir)
	}
	cfg.Tool.ExtraArgs[0] = "mutated"
	if adapter.ExtraArgs[0] != "--embed-thumbnail" {
		t.Fatalf("expected extra args to be copied")
	}
}

func TestPresets(t *testing.T) {
	cases := []struct {
		name   string
		ffmpeg bool
	}{
		{"best", false},
		{"merged", true},
		{"720p", false},
		{"480p", false},
		{"audio", true},
	}
	for _, tc := range cases {
		selector := ResolveSelector(tc.name)
		if selector == tc.name {
			t.Fatalf("preset %s did not resolve", tc.name)
		}
		if got := NeedsFFmpeg(selector); got != tc.ffmpeg {
			t.Fatalf("preset %s: needs ffmpeg = %v, want %v", tc.name, got, tc.ffmpeg)
		}
	}
	if got := ResolveSelector(" MERGED "); got != presets[1].Selector {
		t.Fatalf("expected case-insensitive preset lookup, got %q", got)
	}
	if got := ResolveSelector(" bv*+ba "); got != "bv*+ba" {
		t.Fatalf("expected raw selector passthrough, got %q", got)
	}
	list := Presets()
	list[0].Name = "changed"
	if presets[0].Name != "best" {
		t.Fatalf("Presets must return a copy")
	}
}

func TestSelfUpdateClassifiesOutput(t *testing.T) {
	cases := []struct {
		output string
		want   UpdateStatus
	}{
		{"Latest version: 2024.08.06\nyt-dlp is up to date (2024.08.06)\n", UpdateUpToDate},
		{"Updating to 2024.08.06 ...\nUpdated yt-dlp to 2024.08.06\n", UpdateApplied},
		{"something else happened", UpdateUnknown},
	}
	for _, tc := range cases {
		run := func(ctx context.Context, bin string, args ...string) (string, error) {
			if len(args) != 1 || args[0] != "-U" {
				t.Fatalf("unexpected args %q", args)
			}
			return tc.output, nil
		}
		result, err := selfUpdate(context.Background(), "yt-dlp", run)
		if err != nil {
			t.Fatalf("self update: %v", err)
		}
		if result.Status != tc.want {
			t.Fatalf("output %q: got %s, want %s", tc.output, result.Status, tc.want)
		}
	}
}

func TestSelfUpdateWrapsError(t *testing.T) {
	run := func(ctx context.Context, bin string, args ...string) (string, error) {
		return "permission denied", errors.New("exit status 1")
	}
	result, err := selfUpdate(context.Background(), "yt-dlp", run)
	if err == nil {
		t.Fatalf("expected error")
	}
	if result.Output != "permission denied" {
		t.Fatalf("expected output to be kept, got %q", result.Output)
	}
}

func TestResolveBinaryPrefersBundledCopy(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()
	bundled := filepath.Join(dir, "_internal", "yt-dlp")
	if err := os.MkdirAll(filepath.Dir(bundled), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(bundled, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}

	origExe, origLook := executablePath, lookPath
	t.Cleanup(func() { executablePath, lookPath = origExe, origLook })
	executablePath = func() (string, error) { return filepath.Join(dir, "ytq"), nil }
	lookPath = func(string) (string, error) { return "/usr/bin/yt-dlp", nil }

	got, err := ResolveBinary("yt-dlp")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != bundled {
		t.Fatalf("expected bundled binary, got %s", got)
	}
}

func TestResolveBinaryFallsBackToPath(t *testing.T) {
	origExe, origLook := executablePath, lookPath
	t.Cleanup(func() { executablePath, lookPath = origExe, origLook })
	executablePath = func() (string, error) { return filepath.Join(t.TempDir(), "ytq"), nil }
	lookPath = func(name string) (string, error) {
		if name == "yt-dlp" {
			return "/opt/bin/yt-dlp", nil
		}
		return "", errors.New("not found")
	}

	got, err := ResolveBinary("yt-dlp")
	if err != nil || got != "/opt/bin/yt-dlp" {
		t.Fatalf("unexpected resolve result %q %v", got, err)
	}
	if _, err := ResolveBinary("missing-tool"); err == nil {
		t.Fatalf("expected not found error")
	}
	if _, err := ResolveBinary(""); err == nil {
		t.Fatalf("expected empty name error")
	}
	if _, err := ResolveBinary(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected explicit path error")
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
