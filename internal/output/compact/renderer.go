package compact

import (
	"fmt"
	"strings"
)

// RenderItemLine renders the single live line shown while an item runs.
func RenderItemLine(model ProgressModel) string {
	item := model.Item
	done := model.Run.Completed + model.Run.Failed
	line := fmt.Sprintf("[%d/%d] %s", done+1, maxInt(model.Run.Queued, done+1), truncate(item.Label(), 60))

	bits := []string{}
	if item.Lifecycle != ItemLifecycleIdle && item.Lifecycle != "" {
		bits = append(bits, string(item.Lifecycle))
	}
	if item.Speed != "" {
		bits = append(bits, item.Speed)
	}
	if item.ETA != "" {
		bits = append(bits, "eta "+item.ETA)
	}
	if len(bits) > 0 {
		line += " (" + strings.Join(bits, ", ") + ")"
	}
	if item.ProgressKnown && !item.AlreadyPresent {
		line += " " + RenderProgress(item.ProgressPercent, 20)
	}
	return line
}

func RenderGlobalLine(percent float64, width int, done int, total int) string {
	if total <= 0 {
		return fmt.Sprintf("[overall] %s", RenderProgress(percent, width))
	}
	return fmt.Sprintf("[overall] %s (%d/%d)", RenderProgress(percent, width), done, total)
}

func RenderProgress(percent float64, width int) string {
	clamped := ClampPercent(percent)
	if width <= 0 {
		width = 16
	}
	filled := int((clamped / 100) * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	return fmt.Sprintf("[%s] %5.1f%%", bar, clamped)
}

func ClampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
