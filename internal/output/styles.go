package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type humanStyles struct {
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
}

func newHumanStyles(w io.Writer, noColor bool) humanStyles {
	if noColor {
		plain := lipgloss.NewStyle()
		return humanStyles{success: plain, failure: plain, warning: plain, muted: plain, accent: plain}
	}
	r := lipgloss.NewRenderer(w)
	return humanStyles{
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("241")),
		accent:  r.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
	}
}
