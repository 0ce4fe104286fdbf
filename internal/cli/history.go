package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jaa/ytqueue/internal/exitcode"
	"github.com/spf13/cobra"
)

func newHistoryCommand(app *AppContext) *cobra.Command {
	limit := 20

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently finished downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("--limit must be >= 0"))
			}
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if !cfg.History.Enabled {
				return withExitCode(exitcode.InvalidConfig, fmt.Errorf("history is disabled (history.enabled: false)"))
			}

			ctx := withLogger(context.Background(), app, cfg)
			store, err := openHistory(ctx, cfg)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			defer store.Close()

			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}

			if app.Opts.JSON {
				encoder := json.NewEncoder(app.IO.Out)
				encoder.SetEscapeHTML(false)
				if err := encoder.Encode(entries); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				return nil
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.IO.Out, "No downloads recorded yet.")
				return nil
			}

			table := tabwriter.NewWriter(app.IO.Out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(table, "FINISHED\tSTATUS\tDURATION\tURL\tDETAIL")
			for _, entry := range entries {
				duration := (time.Duration(entry.DurationMS) * time.Millisecond).Round(100 * time.Millisecond)
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
					entry.FinishedAt.Local().Format("2006-01-02 15:04:05"),
					entry.Status,
					duration,
					entry.Identifier,
					entry.Detail,
				)
			}
			return table.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", limit, "Maximum number of entries to show (0 = all)")
	return cmd
}

