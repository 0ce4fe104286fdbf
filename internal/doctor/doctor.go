package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/jaa/ytqueue/internal/adapters/ytdlp"
	"github.com/jaa/ytqueue/internal/config"
)

// MinToolVersion is the first yt-dlp release with --progress-template.
const MinToolVersion = "2021.10.9"

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

func (r Report) ErrorCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			count++
		}
	}
	return count
}

func (r *Report) add(severity Severity, name string, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Severity: severity, Name: name, Message: fmt.Sprintf(format, args...)})
}

type Checker struct {
	ResolveBinary func(string) (string, error)
	LookPath      func(string) (string, error)
	ReadVersion   func(context.Context, string) (string, error)
	CheckWritable func(string) error
}

func NewChecker() *Checker {
	return &Checker{
		ResolveBinary: ytdlp.ResolveBinary,
		LookPath:      exec.LookPath,
		ReadVersion:   defaultReadVersion,
		CheckWritable: checkDirWritable,
	}
}

func (c *Checker) Check(ctx context.Context, cfg config.Config) Report {
	report := Report{Checks: []Check{}}

	c.checkTool(ctx, cfg, &report)
	c.checkFFmpeg(cfg, &report)

	outputDir, err := config.ExpandPath(cfg.Download.OutputDir)
	switch {
	case err != nil:
		report.add(SeverityError, "filesystem", "output_dir is invalid: %v", err)
	case outputDir == "":
		report.add(SeverityError, "filesystem", "output_dir is not configured")
	default:
		if err := c.CheckWritable(outputDir); err != nil {
			report.add(SeverityError, "filesystem", "output_dir %s is not writable: %v", outputDir, err)
		} else {
			report.add(SeverityInfo, "filesystem", "output_dir %s is writable", outputDir)
		}
	}

	if cfg.History.Enabled {
		stateDir, err := config.ExpandPath(cfg.History.StateDir)
		if err != nil {
			report.add(SeverityError, "filesystem", "history state_dir is invalid: %v", err)
		} else if err := c.CheckWritable(stateDir); err != nil {
			report.add(SeverityError, "filesystem", "history state_dir %s is not writable: %v", stateDir, err)
		} else {
			report.add(SeverityInfo, "filesystem", "history state_dir %s is writable", stateDir)
		}
	}

	return report
}

func (c *Checker) checkTool(ctx context.Context, cfg config.Config, report *Report) {
	binary := cfg.Tool.Binary
	location, err := c.ResolveBinary(binary)
	if err != nil {
		report.add(SeverityError, "dependency", "%v", err)
		return
	}
	report.add(SeverityInfo, "dependency", "%s found at %s", binary, location)

	output, err := c.ReadVersion(ctx, location)
	if err != nil {
		report.add(SeverityWarn, "dependency", "%s version could not be read: %v", binary, err)
		return
	}
	version, err := extractVersion(output)
	if err != nil {
		report.add(SeverityWarn, "dependency", "%s version output is unrecognized: %q", binary, strings.TrimSpace(output))
		return
	}
	if compareVersions(version, MinToolVersion) < 0 {
		report.add(SeverityError, "dependency", "%s version %s is below minimum %s", binary, version, MinToolVersion)
		return
	}
	report.add(SeverityInfo, "dependency", "%s version %s is compatible", binary, version)
}

func (c *Checker) checkFFmpeg(cfg config.Config, report *Report) {
	location, err := c.LookPath("ffmpeg")
	if err == nil {
		report.add(SeverityInfo, "dependency", "ffmpeg found at %s", location)
		return
	}
	message := "ffmpeg not found in PATH; merged and audio presets will fail"
	if ytdlp.NeedsFFmpeg(ytdlp.ResolveSelector(cfg.Download.Quality)) {
		message = fmt.Sprintf("ffmpeg not found in PATH; configured quality %q needs it", cfg.Download.Quality)
	}
	report.add(SeverityWarn, "dependency", "%s", message)
}

func defaultReadVersion(ctx context.Context, binary string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// checkDirWritable creates path if needed and proves a file can be written
// inside it.
func checkDirWritable(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	file, err := os.CreateTemp(path, ".ytq-write-check-*")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	_ = os.Remove(name)
	return nil
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

func extractVersion(raw string) (string, error) {
	matches := versionPattern.FindStringSubmatch(raw)
	if len(matches) != 4 {
		return "", fmt.Errorf("no version found")
	}
	return fmt.Sprintf("%s.%s.%s", matches[1], matches[2], matches[3]), nil
}

func compareVersions(lhs string, rhs string) int {
	leftParts := strings.Split(lhs, ".")
	rightParts := strings.Split(rhs, ".")
	for i := 0; i < 3; i++ {
		leftValue := 0
		rightValue := 0
		if i < len(leftParts) {
			leftValue, _ = strconv.Atoi(leftParts[i])
		}
		if i < len(rightParts) {
			rightValue, _ = strconv.Atoi(rightParts[i])
		}
		if leftValue > rightValue {
			return 1
		}
		if leftValue < rightValue {
			return -1
		}
	}
	return 0
}
