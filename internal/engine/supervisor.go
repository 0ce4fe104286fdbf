package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jaa/ytqueue/internal/logging"
	"github.com/jaa/ytqueue/internal/output"
)

const (
	DefaultPollInterval     = 100 * time.Millisecond
	DefaultJoinTimeout      = time.Second
	DefaultProgressInterval = 250 * time.Millisecond
)

// ItemRequest names one download inside a run.
type ItemRequest struct {
	RunID      string
	Identifier string
	Selector   string
}

// Supervisor runs exactly one item to a terminal Outcome.
type Supervisor interface {
	Run(ctx context.Context, req ItemRequest, token *CancelToken) Outcome
}

// ProcessSupervisor launches one external process per item and watches it
// until it exits, the token fires, or ItemTimeout elapses.
type ProcessSupervisor struct {
	Builder          CommandBuilder
	Emitter          output.EventEmitter
	PollInterval     time.Duration
	JoinTimeout      time.Duration
	ItemTimeout      time.Duration
	ProgressInterval time.Duration
	DryRun           bool
	Now              func() time.Time
}

func NewProcessSupervisor(builder CommandBuilder, emitter output.EventEmitter) *ProcessSupervisor {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &ProcessSupervisor{
		Builder:          builder,
		Emitter:          emitter,
		PollInterval:     DefaultPollInterval,
		JoinTimeout:      DefaultJoinTimeout,
		ProgressInterval: DefaultProgressInterval,
		Now:              time.Now,
	}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(event output.Event) error {
	return nil
}

func (s *ProcessSupervisor) Run(ctx context.Context, req ItemRequest, token *CancelToken) Outcome {
	start := s.now()
	logger := logging.FromContext(ctx)

	if token.Cancelled() {
		return Outcome{Status: OutcomeCancelled, Detail: "cancelled", ExitCode: 130, Err: ErrProcessCancelled}
	}
	if s.Builder == nil {
		return s.launchFailure(start, errors.New("no command builder configured"))
	}
	spec, err := s.Builder.BuildExecSpec(req.Identifier, req.Selector)
	if err != nil {
		return s.launchFailure(start, err)
	}
	if spec.Bin == "" {
		return s.launchFailure(start, errors.New("missing binary"))
	}
	display := spec.DisplayCommand
	if display == "" {
		display = strings.TrimSpace(spec.Bin + " " + strings.Join(spec.Args, " "))
	}

	if s.DryRun {
		s.emit(output.Event{
			Level:      output.LevelInfo,
			Event:      output.EventItemLog,
			RunID:      req.RunID,
			Identifier: req.Identifier,
			Message:    "[dry-run] " + display,
			Details: map[string]any{
				output.DetailCommand: display,
				output.DetailDryRun:  true,
			},
		})
		return Outcome{Status: OutcomeSuccess, Detail: "dry run", Duration: s.since(start)}
	}

	if spec.Dir != "" {
		if err := os.MkdirAll(spec.Dir, 0o755); err != nil {
			return s.launchFailure(start, fmt.Errorf("create output directory: %w", err))
		}
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return s.launchFailure(start, err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return s.launchFailure(start, err)
	}
	defer stdoutR.Close()
	defer stderrR.Close()

	cmd := exec.Command(spec.Bin, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	configureCommandForTermination(cmd)

	logger.Debug().Str("command", display).Msg("launching process")
	startErr := cmd.Start()
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if startErr != nil {
		outcome := s.launchFailure(start, startErr)
		if errors.Is(startErr, exec.ErrNotFound) || errors.Is(startErr, fs.ErrNotExist) {
			outcome.ExitCode = 127
		}
		return outcome
	}

	stderrTail := newTailBuffer(64 * 1024)
	limiter := rate.NewLimiter(rate.Every(s.progressInterval()), 1)

	var readers errgroup.Group
	readers.Go(func() error {
		return readLines(stdoutR, token, func(line string) {
			s.handleStdout(req, line, limiter)
		})
	})
	readers.Go(func() error {
		return readLines(stderrR, token, func(line string) {
			_, _ = stderrTail.Write([]byte(line + "\n"))
			s.emitLog(req, line, "stderr", output.LevelWarn)
		})
	})

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	var timeout <-chan time.Time
	if s.ItemTimeout > 0 {
		timer := time.NewTimer(s.ItemTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	poll := s.pollInterval()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var waitErr error
	exitedOnItsOwn := false
	cancelled := false
	timedOut := false

loop:
	for {
		select {
		case waitErr = <-exited:
			exitedOnItsOwn = true
			break loop
		case <-token.Done():
			cancelled = true
			break loop
		case <-ctx.Done():
			cancelled = true
			break loop
		case <-timeout:
			timedOut = true
			break loop
		case <-ticker.C:
			if token.Cancelled() {
				cancelled = true
				break loop
			}
		}
	}

	if !exitedOnItsOwn {
		logger.Debug().Bool("timed_out", timedOut).Int("pid", cmd.Process.Pid).Msg("sending termination signal")
		terminateCommand(cmd)
		select {
		case waitErr = <-exited:
		case <-time.After(poll):
			logger.Warn().Int("pid", cmd.Process.Pid).Msg("process still running after termination signal")
		}
	}

	s.joinReaders(ctx, &readers, stdoutR, stderrR)

	outcome := Outcome{
		Duration:   s.since(start),
		StderrTail: stderrTail.String(),
	}
	switch {
	case cancelled:
		outcome.Status = OutcomeCancelled
		outcome.Detail = "cancelled"
		outcome.ExitCode = 130
		outcome.Err = ErrProcessCancelled
	case timedOut:
		outcome.Status = OutcomeFailure
		outcome.Detail = "timed out"
		outcome.ExitCode = 124
		outcome.Err = fmt.Errorf("%w after %s", ErrProcessTimedOut, s.ItemTimeout)
	default:
		outcome.ExitCode = exitCodeOf(waitErr)
		if outcome.ExitCode == 0 {
			outcome.Status = OutcomeSuccess
			return outcome
		}
		outcome.Status = OutcomeFailure
		outcome.Detail = fmt.Sprintf("exit code %d", outcome.ExitCode)
		outcome.Err = fmt.Errorf("%w: exit code %d", ErrProcessExitNonZero, outcome.ExitCode)
		logger.Debug().Int("exit_code", outcome.ExitCode).Msg("process failed")
	}
	return outcome
}

// joinReaders waits for both stream readers. Past JoinTimeout it closes the
// read ends, which unblocks any reader still parked on a pipe held open by a
// grandchild process.
func (s *ProcessSupervisor) joinReaders(ctx context.Context, readers *errgroup.Group, pipes ...*os.File) {
	logger := logging.FromContext(ctx)
	done := make(chan error, 1)
	go func() {
		done <- readers.Wait()
	}()

	join := s.JoinTimeout
	if join <= 0 {
		join = DefaultJoinTimeout
	}
	select {
	case err := <-done:
		if err != nil {
			logger.Warn().Err(err).Msg("output stream read error")
		}
	case <-time.After(join):
		logger.Warn().Dur("timeout", join).Msg("output readers did not finish, closing pipes")
		for _, pipe := range pipes {
			_ = pipe.Close()
		}
	}
}

func (s *ProcessSupervisor) handleStdout(req ItemRequest, line string, limiter *rate.Limiter) {
	snapshot, ok := ParseProgress(line)
	if !ok {
		s.emitLog(req, line, "stdout", output.LevelInfo)
		return
	}
	if snapshot.Percentage < 1 && !limiter.Allow() {
		return
	}
	details := map[string]any{
		output.DetailPercentage: snapshot.Percentage,
	}
	if snapshot.Speed != "" {
		details[output.DetailSpeed] = snapshot.Speed
	}
	if snapshot.ETA != "" {
		details[output.DetailETA] = snapshot.ETA
	}
	s.emit(output.Event{
		Level:      output.LevelInfo,
		Event:      output.EventItemProgress,
		RunID:      req.RunID,
		Identifier: req.Identifier,
		Message:    fmt.Sprintf("%.1f%%", snapshot.Percentage*100),
		Details:    details,
	})
}

func (s *ProcessSupervisor) emitLog(req ItemRequest, line, stream string, level output.Level) {
	s.emit(output.Event{
		Level:      level,
		Event:      output.EventItemLog,
		RunID:      req.RunID,
		Identifier: req.Identifier,
		Message:    line,
		Details: map[string]any{
			output.DetailStream: stream,
		},
	})
}

func (s *ProcessSupervisor) emit(event output.Event) {
	if s.Emitter == nil {
		return
	}
	event.Timestamp = s.now()
	_ = s.Emitter.Emit(event)
}

func (s *ProcessSupervisor) launchFailure(start time.Time, err error) Outcome {
	return Outcome{
		Status:   OutcomeFailure,
		Detail:   err.Error(),
		ExitCode: 1,
		Duration: s.since(start),
		Err:      fmt.Errorf("%w: %v", ErrProcessLaunchFailed, err),
	}
}

func (s *ProcessSupervisor) pollInterval() time.Duration {
	if s.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return s.PollInterval
}

func (s *ProcessSupervisor) progressInterval() time.Duration {
	if s.ProgressInterval <= 0 {
		return DefaultProgressInterval
	}
	return s.ProgressInterval
}

func (s *ProcessSupervisor) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *ProcessSupervisor) since(start time.Time) time.Duration {
	return s.now().Sub(start)
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
	}
	return 1
}
