package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/jaa/ytqueue/internal/fileops"
	"github.com/jaa/ytqueue/internal/identifier"
	"github.com/jaa/ytqueue/internal/output"
)

// Pruner removes successfully downloaded identifiers from the candidate file
// so the file keeps listing only what is still pending. It is an
// output.EventEmitter reacting to item_finished events.
type Pruner struct {
	Path string

	mu sync.Mutex
}

func NewPruner(path string) *Pruner {
	return &Pruner{Path: path}
}

func (p *Pruner) Emit(event output.Event) error {
	if event.Event != output.EventItemFinished || event.Identifier == "" {
		return nil
	}
	if event.DetailString(output.DetailStatus) != "success" {
		return nil
	}
	_, err := p.Remove(event.Identifier)
	return err
}

// Remove drops every line that normalises to id and reports whether the file
// changed. Comments, blank lines, and other entries are kept as they are.
func (p *Pruner) Remove(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", p.Path, err)
	}
	payload, err := os.ReadFile(p.Path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", p.Path, err)
	}

	text := string(payload)
	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	removed := false
	for _, line := range lines {
		if identifier.Normalize(line) == id {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return false, nil
	}

	if err := fileops.WriteFileAtomic(p.Path, []byte(strings.Join(kept, newline)), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("prune %s: %w", p.Path, err)
	}
	return true, nil
}
