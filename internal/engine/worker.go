package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jaa/ytqueue/internal/identifier"
	"github.com/jaa/ytqueue/internal/logging"
	"github.com/jaa/ytqueue/internal/output"
	"github.com/jaa/ytqueue/internal/queue"
)

const DefaultGrace = 500 * time.Millisecond

// Worker drains one WorkQueue through a Supervisor, one item at a time. Only
// one run may be active per Worker.
//
// An empty queue is handled with a bounded grace sleep followed by a single
// resync and retry, not a condition variable. A wakeup channel fed by Enqueue
// would carry stale signals across Reset, and the grace window also has to
// cover producers that have not called Enqueue yet.
type Worker struct {
	Queue      *queue.WorkQueue
	Sync       *queue.Synchronizer
	Supervisor Supervisor
	Emitter    output.EventEmitter
	Grace      time.Duration
	Now        func() time.Time
	NewRunID   func() string

	running atomic.Bool

	mu       sync.Mutex
	state    WorkerState
	token    *CancelToken
	runID    string
	current  string
	rejected map[string]struct{}

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

func NewWorker(q *queue.WorkQueue, supervisor Supervisor, emitter output.EventEmitter) *Worker {
	if q == nil {
		q = queue.New()
	}
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &Worker{
		Queue:      q,
		Supervisor: supervisor,
		Emitter:    emitter,
		Grace:      DefaultGrace,
		Now:        time.Now,
		NewRunID:   uuid.NewString,
		state:      StateIdle,
	}
}

// Synchronizer returns a Synchronizer bound to this worker's queue that only
// acts while a run is active, and remembers it for the grace-period resync.
func (w *Worker) Synchronizer(candidates queue.CandidateFunc) *queue.Synchronizer {
	s := queue.NewSynchronizer(w.Queue, candidates, w.Active)
	s.OnAdded = func(id string) {
		w.emitQueued(w.RunID(), id)
	}
	s.OnRejected = func(value string) {
		w.reject(w.RunID(), value)
	}
	w.Sync = s
	return s
}

// Run executes one run to completion. It returns ErrRunActive when another run
// is in progress and ErrInterrupted, together with the summary, when the run
// was cancelled. Cancelling ctx cancels the run.
func (w *Worker) Run(ctx context.Context, req StartRequest) (RunSummary, error) {
	if !w.running.CompareAndSwap(false, true) {
		return RunSummary{}, ErrRunActive
	}
	defer w.running.Store(false)

	start := w.now()
	token := NewCancelToken()
	runID := w.newRunID()
	stop := context.AfterFunc(ctx, token.Cancel)
	defer stop()

	ctx = logging.WithRunID(logging.WithComponent(ctx, "worker"), runID)
	logger := logging.FromContext(ctx)

	w.processed.Store(0)
	w.succeeded.Store(0)
	w.failed.Store(0)
	w.mu.Lock()
	w.token = token
	w.runID = runID
	w.current = ""
	w.rejected = map[string]struct{}{}
	w.mu.Unlock()

	initial := make([]string, 0, len(req.Identifiers))
	invalid := []string{}
	for _, raw := range req.Identifiers {
		id := identifier.Normalize(raw)
		if !identifier.IsValid(id) {
			invalid = append(invalid, raw)
			continue
		}
		initial = append(initial, id)
	}
	w.Queue.Reset(initial)
	w.setState(StateRunning)

	w.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventRunStarted,
		RunID:   runID,
		Message: fmt.Sprintf("run started (%d item(s) queued)", w.Queue.PendingCount()),
		Details: map[string]any{
			output.DetailPending:  w.Queue.PendingCount(),
			output.DetailSelector: req.Selector,
		},
	})
	for _, raw := range invalid {
		w.reject(runID, raw)
	}
	for _, id := range w.Queue.Pending() {
		w.emitQueued(runID, id)
	}

	summary := RunSummary{RunID: runID}
	for {
		if token.Cancelled() {
			w.setState(StateCancelling)
			break
		}

		id, ok := w.Queue.Dequeue()
		if !ok {
			if !w.waitGrace(token) {
				w.setState(StateCancelling)
				break
			}
			w.Sync.Sync()
			id, ok = w.Queue.DequeueOrClose()
			if !ok {
				w.setState(StateDraining)
				logger.Debug().Msg("queue drained")
				break
			}
		}
		if token.Cancelled() {
			w.finishNotStarted(runID, id, &summary)
			w.setState(StateCancelling)
			break
		}

		outcome := w.runItem(ctx, ItemRequest{RunID: runID, Identifier: id, Selector: req.Selector}, token)
		summary.Processed++
		w.processed.Add(1)
		switch outcome.Status {
		case OutcomeSuccess:
			summary.Succeeded++
			w.succeeded.Add(1)
		case OutcomeCancelled:
			summary.Cancelled++
		default:
			summary.Failed++
			w.failed.Add(1)
		}
		w.emitFinished(runID, id, outcome)
	}

	if token.Cancelled() {
		summary.Interrupted = true
		for {
			id, ok := w.Queue.Dequeue()
			if !ok {
				break
			}
			w.finishNotStarted(runID, id, &summary)
		}
	}
	summary.Duration = w.now().Sub(start)

	level := output.LevelInfo
	if summary.Failed > 0 || summary.Interrupted {
		level = output.LevelWarn
	}
	w.emit(output.Event{
		Level: level,
		Event: output.EventRunFinished,
		RunID: runID,
		Message: fmt.Sprintf(
			"run finished: processed=%d succeeded=%d failed=%d",
			summary.Processed,
			summary.Succeeded,
			summary.Failed,
		),
		Details: map[string]any{
			output.DetailProcessed:  summary.Processed,
			output.DetailSucceeded:  summary.Succeeded,
			output.DetailFailed:     summary.Failed,
			output.DetailCancelled:  summary.Cancelled,
			output.DetailNotStarted: summary.NotStarted,
			output.DetailDurationMS: summary.Duration.Milliseconds(),
		},
	})

	w.mu.Lock()
	w.current = ""
	w.state = StateIdle
	w.mu.Unlock()

	if summary.Interrupted {
		return summary, ErrInterrupted
	}
	return summary, nil
}

func (w *Worker) runItem(ctx context.Context, req ItemRequest, token *CancelToken) (outcome Outcome) {
	ctx = logging.WithIdentifier(ctx, req.Identifier)
	w.setCurrent(req.Identifier)
	defer w.setCurrent("")

	w.emit(output.Event{
		Level:      output.LevelInfo,
		Event:      output.EventItemStarted,
		RunID:      req.RunID,
		Identifier: req.Identifier,
		Message:    "downloading " + req.Identifier,
		Details: map[string]any{
			output.DetailPending: w.Queue.PendingCount(),
		},
	})

	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error().Interface("panic", r).Msg("supervisor panicked")
			outcome = Outcome{
				Status:   OutcomeFailure,
				Detail:   fmt.Sprintf("internal error: %v", r),
				ExitCode: 1,
				Err:      fmt.Errorf("%w: %v", ErrSupervisorPanic, r),
			}
		}
	}()
	if w.Supervisor == nil {
		return Outcome{Status: OutcomeFailure, Detail: "no supervisor configured", ExitCode: 1, Err: ErrProcessLaunchFailed}
	}
	return w.Supervisor.Run(ctx, req, token)
}

func (w *Worker) waitGrace(token *CancelToken) bool {
	grace := w.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-timer.C:
		return !token.Cancelled()
	case <-token.Done():
		return false
	}
}

// Cancel stops the active run. The in-flight item is asked to terminate and no
// further items start. It is a no-op when idle.
func (w *Worker) Cancel() {
	if !w.running.Load() {
		return
	}
	w.mu.Lock()
	token := w.token
	if w.state == StateRunning {
		w.state = StateCancelling
	}
	w.mu.Unlock()
	token.Cancel()
}

// Active reports whether producers may add work to the current run.
func (w *Worker) Active() bool {
	return w.State() == StateRunning
}

func (w *Worker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) RunID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runID
}

func (w *Worker) Snapshot() RunSnapshot {
	w.mu.Lock()
	snapshot := RunSnapshot{
		RunID:             w.runID,
		State:             w.state,
		CurrentIdentifier: w.current,
	}
	w.mu.Unlock()
	snapshot.Processed = int(w.processed.Load())
	snapshot.Succeeded = int(w.succeeded.Load())
	snapshot.Failed = int(w.failed.Load())
	snapshot.Pending = w.Queue.PendingCount()
	return snapshot
}

func (w *Worker) setState(state WorkerState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateCancelling && state == StateRunning {
		return
	}
	w.state = state
}

func (w *Worker) setCurrent(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = id
}

func (w *Worker) finishNotStarted(runID, id string, summary *RunSummary) {
	summary.NotStarted++
	w.emitFinished(runID, id, Outcome{Status: OutcomeCancelled, Detail: "not started", Err: ErrProcessCancelled})
}

func (w *Worker) reject(runID, value string) {
	w.mu.Lock()
	if w.rejected == nil {
		w.rejected = map[string]struct{}{}
	}
	_, seen := w.rejected[value]
	w.rejected[value] = struct{}{}
	w.mu.Unlock()
	if seen {
		return
	}
	w.emit(output.Event{
		Level:   output.LevelWarn,
		Event:   output.EventItemRejected,
		RunID:   runID,
		Message: fmt.Sprintf("ignored %q: %v", value, identifier.ErrRejected),
		Details: map[string]any{
			output.DetailLine: value,
		},
	})
}

func (w *Worker) emitQueued(runID, id string) {
	w.emit(output.Event{
		Level:      output.LevelInfo,
		Event:      output.EventItemQueued,
		RunID:      runID,
		Identifier: id,
		Message:    "queued " + id,
	})
}

func (w *Worker) emitFinished(runID, id string, outcome Outcome) {
	level := output.LevelInfo
	switch outcome.Status {
	case OutcomeFailure:
		level = output.LevelError
	case OutcomeCancelled:
		level = output.LevelWarn
	}
	message := fmt.Sprintf("%s %s", outcome.Status, id)
	if outcome.Detail != "" {
		message += " (" + outcome.Detail + ")"
	}
	w.emit(output.Event{
		Level:      level,
		Event:      output.EventItemFinished,
		RunID:      runID,
		Identifier: id,
		Message:    message,
		Details: map[string]any{
			output.DetailStatus:     string(outcome.Status),
			output.DetailDetail:     outcome.Detail,
			output.DetailExitCode:   outcome.ExitCode,
			output.DetailDurationMS: outcome.Duration.Milliseconds(),
		},
	})
}

func (w *Worker) emit(event output.Event) {
	event.Timestamp = w.now()
	_ = w.Emitter.Emit(event)
}

func (w *Worker) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func (w *Worker) newRunID() string {
	if w.NewRunID == nil {
		return uuid.NewString()
	}
	return w.NewRunID()
}
