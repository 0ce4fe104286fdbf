package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/jaa/ytqueue/internal/adapters/ytdlp"
	"github.com/jaa/ytqueue/internal/config"
	"github.com/jaa/ytqueue/internal/engine"
	"github.com/jaa/ytqueue/internal/exitcode"
	"github.com/jaa/ytqueue/internal/history"
	"github.com/jaa/ytqueue/internal/identifier"
	"github.com/jaa/ytqueue/internal/logging"
	"github.com/jaa/ytqueue/internal/output"
	"github.com/jaa/ytqueue/internal/queue"
	"github.com/jaa/ytqueue/internal/watch"
	"github.com/spf13/cobra"
)

var lookPath = exec.LookPath

type downloadOptions struct {
	file     string
	watch    bool
	prune    bool
	quality  string
	grace    time.Duration
	timeout  time.Duration
	progress string
}

func newDownloadCommand(app *AppContext) *cobra.Command {
	opts := downloadOptions{}

	cmd := &cobra.Command{
		Use:     "download [URL...]",
		Aliases: []string{"dl"},
		Short:   "Download YouTube URLs one at a time",
		Long: "Download the given YouTube URLs sequentially with yt-dlp. Use \"-\" to read URLs from stdin.\n" +
			"With --file, URLs are read from a text file; --watch keeps picking up URLs added to it while the run is active.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch && strings.TrimSpace(opts.file) == "" {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("--watch requires --file"))
			}
			if !cmd.Flags().Changed("prune") {
				opts.prune = opts.watch
			}
			progressMode, err := parseProgressMode(opts.progress)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}

			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()
			ctx = withLogger(ctx, app, cfg)
			log := logging.FromContext(ctx)

			var source *watch.FileSource
			if opts.file != "" {
				path, err := config.ExpandPath(opts.file)
				if err != nil {
					return withExitCode(exitcode.InvalidUsage, err)
				}
				source = watch.NewFileSource(path, *log)
			}

			candidates, err := collectCandidates(app, args, source)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			valid := countValid(candidates)
			if valid == 0 {
				return withExitCode(exitcode.NoValidURLs, fmt.Errorf("no valid YouTube URLs provided"))
			}
			if limit := cfg.Download.MaxURLs; limit > 0 && valid > limit {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("%d URLs given; at most %d are allowed per run (download.max_urls)", valid, limit))
			}

			quality := cfg.Download.Quality
			if strings.TrimSpace(opts.quality) != "" {
				quality = opts.quality
			}
			selector := ytdlp.ResolveSelector(quality)
			if ytdlp.NeedsFFmpeg(selector) && !app.Opts.DryRun {
				proceed, err := confirmWithoutFFmpeg(app, quality)
				if err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				if !proceed {
					fmt.Fprintln(app.IO.Out, "Download canceled.")
					return nil
				}
			}

			adapter, err := ytdlp.New(cfg)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if !app.Opts.DryRun {
				resolved, err := ytdlp.ResolveBinary(cfg.Tool.Binary)
				if err != nil {
					return withExitCode(exitcode.MissingDependency, err)
				}
				adapter.Binary = resolved
			}

			emitters := []output.EventEmitter{newPrimaryEmitter(app, progressMode)}
			if cfg.History.Enabled && !app.Opts.DryRun {
				store, err := openHistory(ctx, cfg)
				if err != nil {
					log.Warn().Err(err).Msg("history disabled for this run")
				} else {
					defer store.Close()
					emitters = append(emitters, history.NewRecorder(store, *log))
				}
			}
			if opts.prune && source != nil && !app.Opts.DryRun {
				emitters = append(emitters, watch.NewPruner(source.Path))
			}
			emitter := output.NewMultiEmitter(emitters...)

			supervisor := engine.NewProcessSupervisor(adapter, emitter)
			supervisor.PollInterval = cfg.Queue.PollInterval()
			supervisor.JoinTimeout = cfg.Queue.ReaderJoinTimeout()
			supervisor.ItemTimeout = cfg.Download.ItemTimeout()
			if opts.timeout > 0 {
				supervisor.ItemTimeout = opts.timeout
			}
			supervisor.DryRun = app.Opts.DryRun

			worker := engine.NewWorker(queue.New(), supervisor, emitter)
			worker.Grace = cfg.Queue.Grace()
			if opts.grace > 0 {
				worker.Grace = opts.grace
			}

			var watchers sync.WaitGroup
			watchCtx, stopWatch := context.WithCancel(ctx)
			defer func() {
				stopWatch()
				watchers.Wait()
			}()
			if source != nil {
				synchronizer := worker.Synchronizer(source.Candidates)
				if opts.watch {
					watcher := watch.NewWatcher(source.Path, func() { synchronizer.Sync() })
					watchers.Add(1)
					go func() {
						defer watchers.Done()
						if err := watcher.Run(watchCtx); err != nil {
							log.Warn().Err(err).Str("path", source.Path).Msg("file watcher stopped")
						}
					}()
				}
			}

			summary, runErr := worker.Run(ctx, engine.StartRequest{Identifiers: candidates, Selector: selector})
			switch {
			case errors.Is(runErr, engine.ErrInterrupted):
				return withExitCode(exitcode.Interrupted, runErr)
			case runErr != nil:
				return withExitCode(exitcode.RuntimeFailure, runErr)
			}

			if summary.Failed > 0 {
				if summary.Succeeded == 0 {
					return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("all downloads failed (%d)", summary.Failed))
				}
				return withExitCode(exitcode.PartialSuccess, fmt.Errorf("download finished with failed items (%d of %d)", summary.Failed, summary.Processed))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read URLs from a text file (one per line)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep picking up URLs added to --file while the run is active")
	cmd.Flags().BoolVar(&opts.prune, "prune", false, "Remove downloaded URLs from --file (default on with --watch)")
	cmd.Flags().StringVar(&opts.quality, "quality", "", "Quality preset (best, merged, 720p, 480p, audio) or a raw yt-dlp format selector")
	cmd.Flags().DurationVar(&opts.grace, "grace", 0, "How long an empty queue waits for new URLs before the run ends (e.g. 2s)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-item timeout override (e.g. 30m)")
	cmd.Flags().StringVar(&opts.progress, "progress", "auto", "Progress rendering mode: auto, always, or never")
	return cmd
}

// collectCandidates gathers raw candidate lines from arguments, stdin ("-")
// and the file source, in that order. Invalid lines are kept so the run can
// report them.
func collectCandidates(app *AppContext, args []string, source *watch.FileSource) ([]string, error) {
	candidates := []string{}
	for _, arg := range args {
		if arg == "-" {
			payload, err := io.ReadAll(app.IO.In)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			for _, candidate := range identifier.ParseLines(string(payload)) {
				candidates = append(candidates, candidate.Value)
			}
			continue
		}
		for _, candidate := range identifier.ParseLines(arg) {
			candidates = append(candidates, candidate.Value)
		}
	}
	if source != nil {
		values, err := source.Read()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, values...)
	}
	return candidates, nil
}

func countValid(candidates []string) int {
	seen := map[string]struct{}{}
	for _, candidate := range candidates {
		id := identifier.Normalize(candidate)
		if identifier.IsValid(id) {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

func confirmWithoutFFmpeg(app *AppContext, quality string) (bool, error) {
	if _, err := lookPath("ffmpeg"); err == nil {
		return true, nil
	}
	fmt.Fprintf(app.IO.ErrOut, "WARN: ffmpeg not found in PATH; quality %q needs it to merge or convert streams\n", quality)
	if !canPrompt(app) {
		return true, nil
	}
	return promptYesNo(app, "Continue without ffmpeg?")
}

func newPrimaryEmitter(app *AppContext, progressMode string) output.EventEmitter {
	if app.Opts.JSON {
		return output.NewJSONEmitter(app.IO.Out)
	}
	interactive := output.SupportsInPlaceUpdates(app.IO.Out)
	switch progressMode {
	case "always":
		interactive = true
	case "never":
		interactive = false
	}
	return output.NewHumanEmitter(app.IO.Out, app.IO.ErrOut, output.HumanOptions{
		Quiet:       app.Opts.Quiet,
		Verbose:     app.Opts.Verbose,
		NoColor:     app.Opts.NoColor || os.Getenv("NO_COLOR") != "",
		Interactive: interactive,
	})
}

func openHistory(ctx context.Context, cfg config.Config) (*history.Store, error) {
	path, err := config.HistoryPath(cfg.History.StateDir)
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path)
}

func parseProgressMode(raw string) (string, error) {
	mode := strings.TrimSpace(strings.ToLower(raw))
	switch mode {
	case "", "auto", "always", "never":
		if mode == "" {
			return "auto", nil
		}
		return mode, nil
	default:
		return "", fmt.Errorf("invalid --progress mode %q (expected: auto, always, never)", raw)
	}
}
