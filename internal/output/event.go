package output

import "time"

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventRunStarted   EventName = "run_started"
	EventItemQueued   EventName = "item_queued"
	EventItemRejected EventName = "item_rejected"
	EventItemStarted  EventName = "item_started"
	EventItemProgress EventName = "item_progress"
	EventItemLog      EventName = "item_log"
	EventItemFinished EventName = "item_finished"
	EventRunFinished  EventName = "run_finished"
)

// Event is one entry of the user-facing stream. Item events carry the
// identifier; run events carry only the run id.
type Event struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      Level          `json:"level"`
	Event      EventName      `json:"event"`
	RunID      string         `json:"run_id,omitempty"`
	Identifier string         `json:"identifier,omitempty"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
}

// Detail keys shared by producers and consumers of the stream.
const (
	DetailStatus     = "status"
	DetailDetail     = "detail"
	DetailExitCode   = "exit_code"
	DetailDurationMS = "duration_ms"
	DetailPercentage = "percentage"
	DetailSpeed      = "speed"
	DetailETA        = "eta"
	DetailStream     = "stream"
	DetailCommand    = "command"
	DetailPending    = "pending"
	DetailProcessed  = "processed"
	DetailSucceeded  = "succeeded"
	DetailFailed     = "failed"
	DetailCancelled  = "cancelled"
	DetailNotStarted = "not_started"
	DetailSelector   = "selector"
	DetailLine       = "line"
	DetailDryRun     = "dry_run"
)

// DetailString returns details[key] when it is a string.
func (e Event) DetailString(key string) string {
	if e.Details == nil {
		return ""
	}
	value, _ := e.Details[key].(string)
	return value
}

// DetailInt returns details[key] as an int. JSON round-trips turn numbers into
// float64, so both are accepted.
func (e Event) DetailInt(key string) int {
	if e.Details == nil {
		return 0
	}
	switch value := e.Details[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}

func (e Event) DetailFloat(key string) float64 {
	if e.Details == nil {
		return 0
	}
	switch value := e.Details[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	default:
		return 0
	}
}
