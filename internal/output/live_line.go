package output

import (
	"fmt"
	"io"
	"os"
)

// LiveLine owns a single terminal line that is redrawn in place. Persistent
// lines printed through it first clear the live line so the two never mix.
// On non-interactive writers the live line is never drawn.
type LiveLine struct {
	dst         io.Writer
	interactive bool
	activeLine  string
}

func NewLiveLine(dst io.Writer, interactive bool) *LiveLine {
	return &LiveLine{dst: dst, interactive: interactive}
}

func SupportsInPlaceUpdates(dst io.Writer) bool {
	file, ok := dst.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func (l *LiveLine) Interactive() bool {
	return l.interactive
}

func (l *LiveLine) Render(status string) error {
	if !l.interactive || status == l.activeLine {
		return nil
	}
	l.activeLine = status
	_, err := fmt.Fprintf(l.dst, "\r\033[2K%s", status)
	return err
}

// Println clears the live line and prints line to w. The live line is not
// redrawn; the next Render call brings it back.
func (l *LiveLine) Println(w io.Writer, line string) error {
	if err := l.Clear(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func (l *LiveLine) Clear() error {
	if !l.interactive || l.activeLine == "" {
		return nil
	}
	l.activeLine = ""
	_, err := fmt.Fprint(l.dst, "\r\033[2K")
	return err
}
