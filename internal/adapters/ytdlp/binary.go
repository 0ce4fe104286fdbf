package ytdlp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	executablePath = os.Executable
	lookPath       = exec.LookPath
)

// ResolveBinary finds the tool. Explicit paths must exist; bare names are
// looked up next to the running executable first (bundled installs) and then
// on PATH.
func ResolveBinary(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("tool binary is not configured")
	}

	if strings.ContainsAny(name, `/\`) {
		if isExecutableFile(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s not found", name)
	}

	if self, err := executablePath(); err == nil {
		dir := filepath.Dir(self)
		for _, candidate := range bundledCandidates(dir, name) {
			if isExecutableFile(candidate) {
				return candidate, nil
			}
		}
	}

	location, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found next to ytq or in PATH", name)
	}
	return location, nil
}

func bundledCandidates(dir, name string) []string {
	names := []string{name}
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		names = append(names, name+".exe")
	}
	var candidates []string
	for _, base := range []string{filepath.Join(dir, "_internal"), dir} {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(base, n))
		}
	}
	return candidates
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}
