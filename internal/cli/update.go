package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"

	"github.com/jaa/ytqueue/internal/adapters/ytdlp"
	"github.com/jaa/ytqueue/internal/exitcode"
	"github.com/spf13/cobra"
)

var selfUpdate = ytdlp.SelfUpdate

func newUpdateCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update yt-dlp to its latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			binary, err := ytdlp.ResolveBinary(cfg.Tool.Binary)
			if err != nil {
				return withExitCode(exitcode.MissingDependency, err)
			}
			if app.Opts.DryRun {
				fmt.Fprintf(app.IO.Out, "[dry-run] %s -U\n", binary)
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()
			ctx = withLogger(ctx, app, cfg)

			result, err := selfUpdate(ctx, binary)
			if app.Opts.JSON {
				if encodeErr := json.NewEncoder(app.IO.Out).Encode(result); encodeErr != nil {
					return withExitCode(exitcode.RuntimeFailure, encodeErr)
				}
			}
			if err != nil {
				if result.Output != "" && !app.Opts.JSON {
					fmt.Fprintln(app.IO.ErrOut, result.Output)
				}
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("update failed: %w", err))
			}
			if app.Opts.JSON {
				return nil
			}

			switch result.Status {
			case ytdlp.UpdateUpToDate:
				fmt.Fprintln(app.IO.Out, "yt-dlp is already up to date.")
			case ytdlp.UpdateApplied:
				fmt.Fprintln(app.IO.Out, "yt-dlp was updated.")
				if !app.Opts.Quiet && result.Output != "" {
					fmt.Fprintln(app.IO.Out, result.Output)
				}
			default:
				fmt.Fprintln(app.IO.Out, result.Output)
			}
			return nil
		},
	}
}
