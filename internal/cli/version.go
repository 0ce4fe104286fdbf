package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"build_date"`
}

func newVersionCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ytq build (version, commit, build date)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(app)
		},
	}
}

// printVersion backs both "ytq version" and "ytq --version"; --json switches
// it to a single JSON object.
func printVersion(app *AppContext) error {
	info := buildVersionInfo(app.Build)
	if app.Opts.JSON {
		return json.NewEncoder(app.IO.Out).Encode(info)
	}
	_, err := fmt.Fprintf(app.IO.Out, "ytq version %s\ncommit: %s\nbuild_date: %s\n", info.Version, info.Commit, info.Date)
	return err
}

func buildVersionInfo(build BuildInfo) versionInfo {
	return versionInfo{
		Version: orDefault(build.Version, "dev"),
		Commit:  orDefault(build.Commit, "unknown"),
		Date:    orDefault(build.Date, "unknown"),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
