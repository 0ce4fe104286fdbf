package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaa/ytqueue/internal/config"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Download.OutputDir = "/tmp/ytq-out"
	cfg.History.StateDir = "/tmp/ytq-state"
	return cfg
}

func healthyChecker() *Checker {
	return &Checker{
		ResolveBinary: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		LookPath:      func(name string) (string, error) { return "/usr/bin/" + name, nil },
		ReadVersion:   func(ctx context.Context, binary string) (string, error) { return "2024.08.06\n", nil },
		CheckWritable: func(path string) error { return nil },
	}
}

func findCheck(report Report, severity Severity, fragment string) bool {
	for _, check := range report.Checks {
		if check.Severity == severity && strings.Contains(check.Message, fragment) {
			return true
		}
	}
	return false
}

func TestDoctorHealthy(t *testing.T) {
	report := healthyChecker().Check(context.Background(), testConfig())
	if report.HasErrors() {
		t.Fatalf("expected no errors, got %+v", report.Checks)
	}
	if !findCheck(report, SeverityInfo, "yt-dlp version 2024.08.06 is compatible") {
		t.Fatalf("expected version check, got %+v", report.Checks)
	}
	if !findCheck(report, SeverityInfo, "ffmpeg found") {
		t.Fatalf("expected ffmpeg check, got %+v", report.Checks)
	}
}

func TestDoctorMissingTool(t *testing.T) {
	checker := healthyChecker()
	checker.ResolveBinary = func(name string) (string, error) { return "", fmt.Errorf("%s not found next to ytq or in PATH", name) }

	report := checker.Check(context.Background(), testConfig())
	if !report.HasErrors() {
		t.Fatalf("expected doctor errors for missing binary")
	}
	if !findCheck(report, SeverityError, "yt-dlp not found") {
		t.Fatalf("expected missing tool message, got %+v", report.Checks)
	}
}

func TestDoctorOldToolVersion(t *testing.T) {
	checker := healthyChecker()
	checker.ReadVersion = func(ctx context.Context, binary string) (string, error) { return "2021.06.06", nil }

	report := checker.Check(context.Background(), testConfig())
	if report.ErrorCount() != 1 || !findCheck(report, SeverityError, "below minimum") {
		t.Fatalf("expected one version error, got %+v", report.Checks)
	}
}

func TestDoctorUnreadableVersionIsWarning(t *testing.T) {
	checker := healthyChecker()
	checker.ReadVersion = func(ctx context.Context, binary string) (string, error) { return "garbage", nil }

	report := checker.Check(context.Background(), testConfig())
	if report.HasErrors() {
		t.Fatalf("expected only warnings, got %+v", report.Checks)
	}
	if !findCheck(report, SeverityWarn, "unrecognized") {
		t.Fatalf("expected unrecognized version warning, got %+v", report.Checks)
	}
}

func TestDoctorMissingFFmpegIsWarningOnly(t *testing.T) {
	checker := healthyChecker()
	checker.LookPath = func(name string) (string, error) { return "", fmt.Errorf("not found") }

	report := checker.Check(context.Background(), testConfig())
	if report.HasErrors() {
		t.Fatalf("expected no errors, got %+v", report.Checks)
	}
	if !findCheck(report, SeverityWarn, `configured quality "merged" needs it`) {
		t.Fatalf("expected ffmpeg warning, got %+v", report.Checks)
	}
}

func TestDoctorUnwritableOutputDir(t *testing.T) {
	checker := healthyChecker()
	checker.CheckWritable = func(path string) error {
		if path == "/tmp/ytq-out" {
			return fmt.Errorf("permission denied")
		}
		return nil
	}

	report := checker.Check(context.Background(), testConfig())
	if !findCheck(report, SeverityError, "output_dir /tmp/ytq-out is not writable") {
		t.Fatalf("expected output dir error, got %+v", report.Checks)
	}
}

func TestCheckDirWritableCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := checkDirWritable(dir); err != nil {
		t.Fatalf("check writable: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := checkDirWritable(file); err == nil {
		t.Fatalf("expected error for file path")
	}
}

func TestCompareVersions(t *testing.T) {
	if compareVersions("2024.08.06", MinToolVersion) <= 0 {
		t.Fatalf("expected newer version to compare greater")
	}
	if compareVersions("2021.10.9", "2021.10.09") != 0 {
		t.Fatalf("expected numeric comparison")
	}
}
