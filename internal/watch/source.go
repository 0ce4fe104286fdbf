// Package watch is the producer side of a download run backed by a text file:
// it reads candidate identifiers from the file, watches it for edits, and
// removes identifiers from it once they have been downloaded.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jaa/ytqueue/internal/identifier"
	"github.com/rs/zerolog"
)

// FileSource reads candidates from a newline-delimited file.
type FileSource struct {
	Path   string
	Logger zerolog.Logger
}

func NewFileSource(path string, logger zerolog.Logger) *FileSource {
	return &FileSource{Path: path, Logger: logger}
}

// Read returns every non-blank, non-comment line of the file in order,
// valid or not. A missing file reads as empty.
func (s *FileSource) Read() ([]string, error) {
	payload, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	candidates := identifier.ParseLines(string(payload))
	values := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		values = append(values, candidate.Value)
	}
	return values, nil
}

// Candidates is Read for use as a queue.CandidateFunc. Read errors are logged
// and yield no candidates.
func (s *FileSource) Candidates() []string {
	values, err := s.Read()
	if err != nil {
		s.Logger.Warn().Err(err).Str("path", s.Path).Msg("read candidate file")
		return nil
	}
	return values
}
