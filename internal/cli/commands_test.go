package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaa/ytqueue/internal/adapters/ytdlp"
	"github.com/jaa/ytqueue/internal/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsJSON(t *testing.T) {
	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "presets", "--json"))

	var presets []ytdlp.Preset
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &presets))
	require.Len(t, presets, 5)
	assert.Equal(t, "best", presets[0].Name)
}

func TestPresetsTable(t *testing.T) {
	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "presets"))
	assert.Contains(t, stdout.String(), "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best")
}

func TestSchemaUsesYAMLFieldNames(t *testing.T) {
	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "schema"))

	out := stdout.String()
	assert.Contains(t, out, `"output_dir"`)
	assert.Contains(t, out, `"grace_millis"`)
	assert.NotContains(t, out, `"OutputDir"`)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
}

func TestValidateCommand(t *testing.T) {
	tmp := t.TempDir()
	configPath := writeTestConfig(t, tmp, "")
	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "validate", "--config", configPath))
	assert.Contains(t, stdout.String(), "Config is valid.")

	bad := filepath.Join(tmp, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: 2\n"), 0o644))
	app, _, _ = newTestApp("")
	err := runRoot(app, "validate", "--config", bad)
	require.Error(t, err)
	assert.Equal(t, exitcode.InvalidConfig, mapExitCode(err))
}

func TestInitWritesConfigAndRefusesOverwrite(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	path := filepath.Join(tmp, "conf", "config.yaml")

	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "init", "--config", path, "--no-input"))
	assert.Contains(t, stdout.String(), "Wrote config")
	_, err := os.Stat(path)
	require.NoError(t, err)

	app, _, _ = newTestApp("")
	err = runRoot(app, "init", "--config", path, "--no-input")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	app, _, _ = newTestApp("")
	require.NoError(t, runRoot(app, "init", "--config", path, "--force"))
}

func TestHistoryEmpty(t *testing.T) {
	tmp := t.TempDir()
	configPath := writeTestConfig(t, tmp, "")
	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "history", "--config", configPath))
	assert.Contains(t, stdout.String(), "No downloads recorded yet.")
}

func TestVersionCommand(t *testing.T) {
	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "version"))
	assert.Contains(t, stdout.String(), "ytq version test")
}

func TestUnknownCommandIsInvalidUsage(t *testing.T) {
	app, _, _ := newTestApp("")
	err := runRoot(app, "nope")
	require.Error(t, err)
	assert.Equal(t, exitcode.InvalidUsage, mapExitCode(err))
}

func TestVersionJSONFillsDefaults(t *testing.T) {
	app, stdout, _ := newTestApp("")
	app.Build = BuildInfo{Version: "1.2.3"}
	require.NoError(t, runRoot(app, "version", "--json"))

	var info map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &info))
	assert.Equal(t, map[string]string{"version": "1.2.3", "commit": "unknown", "build_date": "unknown"}, info)
}

func TestRootVersionFlag(t *testing.T) {
	app, stdout, _ := newTestApp("")
	require.NoError(t, runRoot(app, "--version"))
	assert.Contains(t, stdout.String(), "ytq version test")
}
