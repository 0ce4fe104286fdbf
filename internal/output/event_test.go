package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestJSONEmitterSerializesEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	emitter := NewJSONEmitter(buf)

	event := Event{
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:      LevelInfo,
		Event:      EventItemFinished,
		RunID:      "run-1",
		Identifier: "https://youtu.be/aaaaaaaaaaa",
		Message:    "finished https://youtu.be/aaaaaaaaaaa?x=1&y=2",
		Details: map[string]any{
			DetailStatus:   "success",
			DetailExitCode: 0,
		},
	}

	if err := emitter.Emit(event); err != nil {
		t.Fatalf("emit: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "x=1&y=2") {
		t.Fatalf("expected unescaped ampersand, got %s", line)
	}
	var decoded Event
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}

	if decoded.Event != EventItemFinished {
		t.Fatalf("unexpected event name: %v", decoded.Event)
	}
	if decoded.RunID != "run-1" || decoded.Identifier != event.Identifier {
		t.Fatalf("unexpected ids: %+v", decoded)
	}
	if decoded.DetailString(DetailStatus) != "success" {
		t.Fatalf("unexpected status: %v", decoded.Details)
	}
	if decoded.DetailInt(DetailExitCode) != 0 {
		t.Fatalf("unexpected exit code: %v", decoded.Details)
	}
}

func TestJSONEmitterOmitsEmptyIdentifiers(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSONEmitter(buf).Emit(Event{Level: LevelInfo, Event: EventRunStarted, Message: "run started"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if strings.Contains(buf.String(), "identifier") || strings.Contains(buf.String(), "run_id") {
		t.Fatalf("expected empty ids to be omitted, got %s", buf.String())
	}
}

func TestDetailAccessorsTolerateMissingAndForeignTypes(t *testing.T) {
	event := Event{Details: map[string]any{
		DetailPercentage: 0.5,
		DetailExitCode:   int64(3),
		DetailStatus:     42,
	}}
	if event.DetailFloat(DetailPercentage) != 0.5 {
		t.Fatalf("unexpected float")
	}
	if event.DetailInt(DetailExitCode) != 3 {
		t.Fatalf("unexpected int")
	}
	if event.DetailString(DetailStatus) != "" {
		t.Fatalf("expected non-string detail to read as empty")
	}
	if (Event{}).DetailInt(DetailFailed) != 0 {
		t.Fatalf("expected zero for nil details")
	}
}
