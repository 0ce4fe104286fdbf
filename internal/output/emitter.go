package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jaa/ytqueue/internal/output/compact"
)

type EventEmitter interface {
	Emit(event Event) error
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(event Event) error

func (f EmitterFunc) Emit(event Event) error {
	return f(event)
}

type JSONEmitter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEmitter{enc: enc}
}

func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(event)
}

// Outcome status values as they appear in item_finished details.
const (
	statusSuccess   = "success"
	statusFailure   = "failure"
	statusCancelled = "cancelled"
)

type HumanOptions struct {
	Quiet       bool
	Verbose     bool
	NoColor     bool
	Interactive bool
}

// HumanEmitter renders the event stream for a person at a terminal. Item
// progress and recognised yt-dlp stdout lines drive a live status line;
// results, warnings and the run summary are printed as persistent lines.
type HumanEmitter struct {
	stdout io.Writer
	stderr io.Writer
	opts   HumanOptions
	styles humanStyles

	mu      sync.Mutex
	live    *LiveLine
	tracker *compact.StateMachine
}

func NewHumanEmitter(stdout, stderr io.Writer, opts HumanOptions) *HumanEmitter {
	return &HumanEmitter{
		stdout:  stdout,
		stderr:  stderr,
		opts:    opts,
		styles:  newHumanStyles(stdout, opts.NoColor),
		live:    NewLiveLine(stdout, opts.Interactive && !opts.Quiet),
		tracker: compact.NewStateMachine(),
	}
}

func (e *HumanEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch event.Event {
	case EventRunStarted:
		e.tracker.Reset()
		return e.info(e.styles.accent.Render(e.message(event)))
	case EventItemQueued:
		e.tracker.Enqueue(1)
		if !e.opts.Verbose {
			return e.refresh()
		}
		return e.info(e.styles.muted.Render(e.message(event)))
	case EventItemRejected:
		return e.warn(e.message(event))
	case EventItemStarted:
		e.tracker.BeginItem(event.Identifier)
		if e.opts.Verbose || !e.live.Interactive() {
			if err := e.info(e.message(event)); err != nil {
				return err
			}
		}
		return e.refresh()
	case EventItemProgress:
		e.tracker.SetProgress(event.DetailFloat(DetailPercentage), event.DetailString(DetailSpeed), event.DetailString(DetailETA))
		return e.refresh()
	case EventItemLog:
		return e.handleLog(event)
	case EventItemFinished:
		return e.handleFinished(event)
	case EventRunFinished:
		line := e.message(event)
		switch {
		case event.Level == LevelError || event.DetailInt(DetailFailed) > 0:
			line = e.styles.failure.Render(line)
		case event.Level == LevelWarn:
			line = e.styles.warning.Render(line)
		default:
			line = e.styles.success.Render(line)
		}
		return e.live.Println(e.stdout, line)
	default:
		switch event.Level {
		case LevelError:
			return e.errorLine(e.message(event))
		case LevelWarn:
			return e.warn(e.message(event))
		case LevelDebug:
			if !e.opts.Verbose {
				return nil
			}
		}
		return e.info(e.message(event))
	}
}

func (e *HumanEmitter) handleLog(event Event) error {
	if event.DetailString(DetailStream) == "stderr" || event.Level == LevelWarn || event.Level == LevelError {
		if event.Level == LevelError {
			return e.errorLine(event.Message)
		}
		return e.warn(event.Message)
	}
	if dryRun, _ := event.Details[DetailDryRun].(bool); dryRun {
		return e.live.Println(e.stdout, e.styles.muted.Render(event.Message))
	}

	if parsed, ok := compact.ParseLine(event.Message); ok {
		switch parsed.Kind {
		case compact.LineEventDestination:
			e.tracker.SetTitle(compact.TitleFromPath(parsed.Text))
			e.tracker.SetLifecycle(compact.ItemLifecycleDownloading)
		case compact.LineEventAlreadyDownloaded:
			e.tracker.SetTitle(compact.TitleFromPath(parsed.Text))
			e.tracker.SetLifecycle(compact.ItemLifecycleSkipped)
		case compact.LineEventMerging:
			e.tracker.SetTitle(compact.TitleFromPath(parsed.Text))
			e.tracker.SetLifecycle(compact.ItemLifecycleMerging)
		case compact.LineEventExtractAudio:
			e.tracker.SetTitle(compact.TitleFromPath(parsed.Text))
			e.tracker.SetLifecycle(compact.ItemLifecycleConverting)
		}
	}
	if e.opts.Verbose {
		if err := e.live.Println(e.stdout, e.styles.muted.Render(event.Message)); err != nil {
			return err
		}
	}
	return e.refresh()
}

func (e *HumanEmitter) handleFinished(event Event) error {
	status := event.DetailString(DetailStatus)
	detail := event.DetailString(DetailDetail)
	current := e.tracker.Snapshot().Item

	label := event.Identifier
	if current.Lifecycle != compact.ItemLifecycleIdle && current.Identifier == event.Identifier {
		lifecycle := compact.ItemLifecycleDone
		switch status {
		case statusFailure:
			lifecycle = compact.ItemLifecycleFailed
		case statusCancelled:
			lifecycle = compact.ItemLifecycleCancelled
		}
		finished := e.tracker.FinishItem(lifecycle)
		label = finished.Label()
		if finished.Lifecycle == compact.ItemLifecycleSkipped {
			return e.info(e.styles.muted.Render("[skip] " + label + " (already downloaded)"))
		}
	}

	switch status {
	case statusSuccess:
		if detail != "" {
			label += " (" + detail + ")"
		}
		return e.info(e.styles.success.Render("[done] ") + label)
	case statusCancelled:
		if detail != "" {
			label += " (" + detail + ")"
		}
		return e.warn("[cancelled] " + label)
	default:
		line := "[failed] " + label
		if detail != "" {
			line += ": " + detail
		}
		return e.errorLine(line)
	}
}

func (e *HumanEmitter) refresh() error {
	if !e.live.Interactive() || !e.tracker.Active() {
		return nil
	}
	return e.live.Render(compact.RenderItemLine(e.tracker.Snapshot()))
}

func (e *HumanEmitter) info(line string) error {
	if e.opts.Quiet {
		return nil
	}
	if err := e.live.Println(e.stdout, line); err != nil {
		return err
	}
	return e.refresh()
}

func (e *HumanEmitter) warn(line string) error {
	if e.opts.Quiet {
		return nil
	}
	if err := e.live.Println(e.stderr, e.styles.warning.Render("WARN: ")+line); err != nil {
		return err
	}
	return e.refresh()
}

func (e *HumanEmitter) errorLine(line string) error {
	if err := e.live.Println(e.stderr, e.styles.failure.Render("ERROR: ")+line); err != nil {
		return err
	}
	return e.refresh()
}

func (e *HumanEmitter) message(event Event) string {
	if event.Message != "" {
		return event.Message
	}
	return string(event.Event)
}

// MultiEmitter fans each event out to every emitter. A failing emitter does
// not stop delivery to the rest; all errors are joined.
type MultiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) *MultiEmitter {
	kept := make([]EventEmitter, 0, len(emitters))
	for _, emitter := range emitters {
		if emitter != nil {
			kept = append(kept, emitter)
		}
	}
	return &MultiEmitter{emitters: kept}
}

func (e *MultiEmitter) Emit(event Event) error {
	var errs []error
	for _, emitter := range e.emitters {
		if err := emitter.Emit(event); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", emitter, err))
		}
	}
	return errors.Join(errs...)
}
