package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const maxStreamLine = 1024 * 1024

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	if max <= 0 {
		max = 64 * 1024
	}
	return &tailBuffer{
		buf: make([]byte, 0, max),
		max: max,
	}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		return len(p), nil
	}
	overflow := len(t.buf) + len(p) - t.max
	if overflow > 0 {
		t.buf = append(t.buf[:0], t.buf[overflow:]...)
	}
	t.buf = append(t.buf, p...)
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// splitLinesOrCarriageReturns is a bufio.SplitFunc that ends a line at either
// '\n' or '\r'; the tool redraws progress with bare carriage returns.
func splitLinesOrCarriageReturns(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// readLines calls onLine for every non-blank line of r until EOF. A read end
// closed underneath it counts as EOF. Once token is cancelled the remaining
// output is still drained, so the exiting process never blocks on a full
// pipe, but nothing more is forwarded.
func readLines(r io.Reader, token *CancelToken, onLine func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	scanner.Split(splitLinesOrCarriageReturns)
	for scanner.Scan() {
		if token != nil && token.Cancelled() {
			continue
		}
		line := strings.TrimRight(strings.ToValidUTF8(scanner.Text(), "\uFFFD"), " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		onLine(line)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrStreamRead, err)
	}
	return nil
}
