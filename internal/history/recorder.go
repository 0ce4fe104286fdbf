package history

import (
	"context"
	"time"

	"github.com/jaa/ytqueue/internal/output"
	"github.com/rs/zerolog"
)

const recordTimeout = 5 * time.Second

// Recorder appends every item_finished event to the store. Store failures
// are logged and never interrupt the run.
type Recorder struct {
	Store  *Store
	Logger zerolog.Logger
}

func NewRecorder(store *Store, logger zerolog.Logger) *Recorder {
	return &Recorder{Store: store, Logger: logger}
}

func (r *Recorder) Emit(event output.Event) error {
	if event.Event != output.EventItemFinished || r.Store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := Entry{
		RunID:      event.RunID,
		Identifier: event.Identifier,
		Status:     event.DetailString(output.DetailStatus),
		Detail:     event.DetailString(output.DetailDetail),
		ExitCode:   event.DetailInt(output.DetailExitCode),
		DurationMS: int64(event.DetailInt(output.DetailDurationMS)),
		FinishedAt: event.Timestamp,
	}
	if err := r.Store.Record(ctx, entry); err != nil {
		r.Logger.Warn().Err(err).Str("identifier", event.Identifier).Msg("history record failed")
	}
	return nil
}
