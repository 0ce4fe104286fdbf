package engine

import (
	"math"
	"strconv"
	"strings"
)

// ProgressSnapshot is one decoded "percentage;speed;eta" line. Percentage is a
// fraction (0.455 for 45.5%); it is not clamped and may go backwards when the
// tool restarts a fragment.
type ProgressSnapshot struct {
	Percentage float64
	Speed      string
	ETA        string
}

var absentProgressValues = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"None": {},
}

// ParseProgress decodes a progress-template line. ok is false for anything
// else, and the caller treats the line as plain log text.
func ParseProgress(line string) (ProgressSnapshot, bool) {
	if !strings.Contains(line, "%") {
		return ProgressSnapshot{}, false
	}
	fields := strings.SplitN(strings.TrimSpace(line), ";", 4)
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(fields[0]), "%"))
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return ProgressSnapshot{}, false
	}

	snapshot := ProgressSnapshot{Percentage: value / 100}
	if len(fields) > 1 {
		snapshot.Speed = progressField(fields[1])
	}
	if len(fields) > 2 {
		snapshot.ETA = progressField(fields[2])
	}
	return snapshot, true
}

func progressField(raw string) string {
	value := strings.TrimSpace(raw)
	if _, absent := absentProgressValues[value]; absent {
		return ""
	}
	return value
}
