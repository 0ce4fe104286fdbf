package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaa/ytqueue/internal/output"
	"github.com/jaa/ytqueue/internal/queue"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []output.Event
}

func (e *recordingEmitter) Emit(event output.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *recordingEmitter) named(name output.EventName) []output.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	matched := []output.Event{}
	for _, event := range e.events {
		if event.Event == name {
			matched = append(matched, event)
		}
	}
	return matched
}

func (e *recordingEmitter) waitFor(name output.EventName, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(e.named(name)) > 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

type fakeSupervisor struct {
	mu   sync.Mutex
	seen []string
	run  func(ctx context.Context, req ItemRequest, token *CancelToken) Outcome
}

func (s *fakeSupervisor) Run(ctx context.Context, req ItemRequest, token *CancelToken) Outcome {
	s.mu.Lock()
	s.seen = append(s.seen, req.Identifier)
	s.mu.Unlock()
	if s.run == nil {
		return Outcome{Status: OutcomeSuccess}
	}
	return s.run(ctx, req, token)
}

func (s *fakeSupervisor) processed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func videoURL(n int) string {
	return fmt.Sprintf("https://youtu.be/video%06d", n)
}

func newTestWorker(supervisor Supervisor, emitter output.EventEmitter) *Worker {
	w := NewWorker(queue.New(), supervisor, emitter)
	w.Grace = 20 * time.Millisecond
	w.NewRunID = func() string { return "run-test" }
	return w
}

func TestWorkerCountsOutcomes(t *testing.T) {
	ids := []string{videoURL(1), videoURL(2), videoURL(3), videoURL(4), videoURL(5)}
	supervisor := &fakeSupervisor{run: func(ctx context.Context, req ItemRequest, token *CancelToken) Outcome {
		if req.Identifier == ids[1] || req.Identifier == ids[3] {
			return Outcome{Status: OutcomeFailure, ExitCode: 1, Detail: "exit code 1", Err: ErrProcessExitNonZero}
		}
		return Outcome{Status: OutcomeSuccess}
	}}
	emitter := &recordingEmitter{}
	w := newTestWorker(supervisor, emitter)

	summary, err := w.Run(context.Background(), StartRequest{Identifiers: ids, Selector: "best"})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.False(t, summary.Interrupted)
	assert.Equal(t, ids, supervisor.processed())

	finished := emitter.named(output.EventItemFinished)
	require.Len(t, finished, 5)
	assert.Equal(t, "failure", finished[1].DetailString(output.DetailStatus))

	runFinished := emitter.named(output.EventRunFinished)
	require.Len(t, runFinished, 1)
	assert.Equal(t, 5, runFinished[0].DetailInt(output.DetailProcessed))
	assert.Equal(t, 3, runFinished[0].DetailInt(output.DetailSucceeded))
	assert.Equal(t, 2, runFinished[0].DetailInt(output.DetailFailed))
	assert.Equal(t, StateIdle, w.State())
}

func TestWorkerCancelStopsInFlightItemAndSkipsRest(t *testing.T) {
	ids := []string{videoURL(1), videoURL(2), videoURL(3)}
	started := make(chan struct{})
	supervisor := &fakeSupervisor{run: func(ctx context.Context, req ItemRequest, token *CancelToken) Outcome {
		close(started)
		<-token.Done()
		return Outcome{Status: OutcomeCancelled, Detail: "cancelled", Err: ErrProcessCancelled}
	}}
	emitter := &recordingEmitter{}
	w := newTestWorker(supervisor, emitter)

	go func() {
		<-started
		w.Cancel()
	}()

	start := time.Now()
	summary, err := w.Run(context.Background(), StartRequest{Identifiers: ids})
	assert.True(t, errors.Is(err, ErrInterrupted))
	assert.Less(t, time.Since(start), time.Second)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Cancelled)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.NotStarted)
	assert.Equal(t, []string{ids[0]}, supervisor.processed())

	finished := emitter.named(output.EventItemFinished)
	require.Len(t, finished, 3)
	for _, event := range finished[1:] {
		assert.Equal(t, "cancelled", event.DetailString(output.DetailStatus))
		assert.Equal(t, "not started", event.DetailString(output.DetailDetail))
	}
}

func TestWorkerContextCancellationCancelsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	supervisor := &fakeSupervisor{run: func(_ context.Context, req ItemRequest, token *CancelToken) Outcome {
		cancel()
		<-token.Done()
		return Outcome{Status: OutcomeCancelled}
	}}
	w := newTestWorker(supervisor, nil)

	summary, err := w.Run(ctx, StartRequest{Identifiers: []string{videoURL(1), videoURL(2)}})
	assert.True(t, errors.Is(err, ErrInterrupted))
	assert.Equal(t, 1, summary.NotStarted)
}

func TestWorkerPicksUpItemsAddedDuringGrace(t *testing.T) {
	first, second := videoURL(1), videoURL(2)
	supervisor := &fakeSupervisor{}
	w := newTestWorker(supervisor, nil)
	w.Synchronizer(func() []string { return []string{first, second} })

	summary, err := w.Run(context.Background(), StartRequest{Identifiers: []string{first}})
	require.NoError(t, err)

	assert.Equal(t, []string{first, second}, supervisor.processed())
	assert.Equal(t, 2, summary.Processed)
}

func TestWorkerConvertsSupervisorPanicToFailure(t *testing.T) {
	ids := []string{videoURL(1), videoURL(2)}
	supervisor := &fakeSupervisor{run: func(ctx context.Context, req ItemRequest, token *CancelToken) Outcome {
		if req.Identifier == ids[0] {
			panic("boom")
		}
		return Outcome{Status: OutcomeSuccess}
	}}
	emitter := &recordingEmitter{}
	w := newTestWorker(supervisor, emitter)

	summary, err := w.Run(context.Background(), StartRequest{Identifiers: ids})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	finished := emitter.named(output.EventItemFinished)
	require.Len(t, finished, 2)
	assert.Contains(t, finished[0].DetailString(output.DetailDetail), "boom")
}

func TestWorkerRejectsSecondConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	supervisor := &fakeSupervisor{run: func(ctx context.Context, req ItemRequest, token *CancelToken) Outcome {
		close(started)
		<-release
		return Outcome{Status: OutcomeSuccess}
	}}
	w := newTestWorker(supervisor, nil)

	done := make(chan error, 1)
	go func() {
		_, err := w.Run(context.Background(), StartRequest{Identifiers: []string{videoURL(1)}})
		done <- err
	}()
	<-started

	_, err := w.Run(context.Background(), StartRequest{Identifiers: []string{videoURL(2)}})
	assert.True(t, errors.Is(err, ErrRunActive))

	snapshot := w.Snapshot()
	assert.Equal(t, StateRunning, snapshot.State)
	assert.Equal(t, videoURL(1), snapshot.CurrentIdentifier)

	close(release)
	require.NoError(t, <-done)
}

func TestWorkerConcurrentProducersProcessIdentifierOnce(t *testing.T) {
	target := videoURL(99)
	var producer *queue.Synchronizer
	supervisor := &fakeSupervisor{}
	supervisor.run = func(ctx context.Context, req ItemRequest, token *CancelToken) Outcome {
		if req.Identifier == videoURL(1) {
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					producer.Apply([]string{target})
				}()
			}
			wg.Wait()
		}
		return Outcome{Status: OutcomeSuccess}
	}
	emitter := &recordingEmitter{}
	w := newTestWorker(supervisor, emitter)
	producer = w.Synchronizer(func() []string { return []string{target} })

	summary, err := w.Run(context.Background(), StartRequest{Identifiers: []string{videoURL(1)}})
	require.NoError(t, err)

	count := 0
	for _, event := range emitter.named(output.EventItemFinished) {
		if event.Identifier == target {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, summary.Processed)
}

func TestWorkerRejectsInvalidInitialIdentifiersOnce(t *testing.T) {
	emitter := &recordingEmitter{}
	w := newTestWorker(&fakeSupervisor{}, emitter)

	summary, err := w.Run(context.Background(), StartRequest{Identifiers: []string{
		"https://www.youtube.com/watch?v=VIDEO_ID",
		"https://www.youtube.com/watch?v=VIDEO_ID",
		videoURL(1),
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Len(t, emitter.named(output.EventItemRejected), 1)
}

func TestWorkerCancelWhenIdleIsNoOp(t *testing.T) {
	w := newTestWorker(&fakeSupervisor{}, nil)
	w.Cancel()
	assert.Equal(t, StateIdle, w.State())

	summary, err := w.Run(context.Background(), StartRequest{Identifiers: []string{videoURL(1)}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
}

type slowRejectEmitter struct {
	recordingEmitter
	delay time.Duration
}

func (e *slowRejectEmitter) Emit(event output.Event) error {
	if event.Event == output.EventItemRejected {
		time.Sleep(e.delay)
	}
	return e.recordingEmitter.Emit(event)
}

func TestWorkerNeverAnnouncesIdentifierAdmittedWhileDraining(t *testing.T) {
	supervisor := &fakeSupervisor{}
	emitter := &slowRejectEmitter{delay: 150 * time.Millisecond}
	w := newTestWorker(supervisor, emitter)
	s := w.Synchronizer(func() []string { return nil })

	var producer sync.WaitGroup
	producer.Add(1)
	go func() {
		defer producer.Done()
		if !assert.Eventually(t, w.Active, time.Second, time.Millisecond) {
			return
		}
		s.Apply([]string{"not a url", videoURL(2)})
	}()

	summary, err := w.Run(context.Background(), StartRequest{Identifiers: []string{videoURL(1)}})
	require.NoError(t, err)
	producer.Wait()

	finished := map[string]bool{}
	for _, event := range emitter.named(output.EventItemFinished) {
		finished[event.Identifier] = true
	}
	for _, event := range emitter.named(output.EventItemQueued) {
		assert.True(t, finished[event.Identifier], "queued %s without an outcome", event.Identifier)
	}
	assert.Equal(t, len(supervisor.processed()), summary.Processed)
	assert.Empty(t, w.Queue.Pending())
}

func TestWorkerReopensQueueForNextRun(t *testing.T) {
	supervisor := &fakeSupervisor{}
	w := newTestWorker(supervisor, nil)

	_, err := w.Run(context.Background(), StartRequest{Identifiers: []string{videoURL(1)}})
	require.NoError(t, err)
	require.True(t, w.Queue.Closed())

	_, err = w.Run(context.Background(), StartRequest{Identifiers: []string{videoURL(2)}})
	require.NoError(t, err)
	assert.Equal(t, []string{videoURL(1), videoURL(2)}, supervisor.processed())
}
