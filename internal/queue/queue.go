// Package queue holds the pending identifiers of a download run.
package queue

import "sync"

// WorkQueue is a FIFO of pending identifiers plus the set of identifiers already
// admitted into the current run (pending, in flight, or finished). Admission is
// keyed on the seen set, so an identifier that is mid-download cannot be queued
// again. All methods are safe for concurrent use; the lock is never held across
// I/O or callbacks.
//
// A queue closed by DequeueOrClose admits nothing until the next Reset.
type WorkQueue struct {
	mu      sync.Mutex
	pending []string
	seen    map[string]struct{}
	closed  bool
}

func New() *WorkQueue {
	return &WorkQueue{seen: map[string]struct{}{}}
}

// Enqueue appends id unless it was already admitted in this run.
func (q *WorkQueue) Enqueue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueueLocked(id)
}

func (q *WorkQueue) enqueueLocked(id string) bool {
	if q.closed {
		return false
	}
	if _, ok := q.seen[id]; ok {
		return false
	}
	q.seen[id] = struct{}{}
	q.pending = append(q.pending, id)
	return true
}

// Dequeue pops the head of the pending sequence. The identifier stays in the
// seen set until the next Reset.
func (q *WorkQueue) Dequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dequeueLocked()
}

// DequeueOrClose pops the head like Dequeue. When nothing is pending it closes
// the queue in the same critical section, so no Enqueue can slip in between
// the worker seeing an empty queue and the run ending.
func (q *WorkQueue) DequeueOrClose() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, ok := q.dequeueLocked()
	if !ok {
		q.closed = true
	}
	return id, ok
}

func (q *WorkQueue) dequeueLocked() (string, bool) {
	if len(q.pending) == 0 {
		return "", false
	}
	id := q.pending[0]
	q.pending[0] = ""
	q.pending = q.pending[1:]
	return id, true
}

// Closed reports whether the queue stopped admitting identifiers.
func (q *WorkQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *WorkQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Seen reports whether id was admitted in this run.
func (q *WorkQueue) Seen(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.seen[id]
	return ok
}

// Reset clears both the pending sequence and the seen set, reopens the queue,
// then enqueues ids in order. Callers must only reset between runs.
func (q *WorkQueue) Reset(ids []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = false
	q.pending = make([]string, 0, len(ids))
	q.seen = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		q.enqueueLocked(id)
	}
}

// Pending returns a copy of the pending sequence in queue order.
func (q *WorkQueue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.pending...)
}
