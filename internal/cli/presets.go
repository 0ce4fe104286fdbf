package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/jaa/ytqueue/internal/adapters/ytdlp"
	"github.com/jaa/ytqueue/internal/exitcode"
	"github.com/spf13/cobra"
)

func newPresetsCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List quality presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := ytdlp.Presets()
			if app.Opts.JSON {
				encoder := json.NewEncoder(app.IO.Out)
				encoder.SetEscapeHTML(false)
				if err := encoder.Encode(presets); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				return nil
			}

			table := tabwriter.NewWriter(app.IO.Out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(table, "NAME\tFFMPEG\tSELECTOR\tDESCRIPTION")
			for _, preset := range presets {
				ffmpeg := "no"
				if preset.NeedsFFmpeg {
					ffmpeg = "yes"
				}
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", preset.Name, ffmpeg, preset.Selector, preset.Description)
			}
			return table.Flush()
		},
	}
}
