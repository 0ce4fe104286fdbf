package queue

import "github.com/jaa/ytqueue/internal/identifier"

// CandidateFunc returns the identifiers the producer side currently shows, in
// display order. It may include invalid strings; they are filtered here.
type CandidateFunc func() []string

// Synchronizer reconciles the producer's current candidate list with a
// WorkQueue. It only ever calls Enqueue, so it is safe to run repeatedly and
// concurrently with a worker draining the same queue.
type Synchronizer struct {
	Queue      *WorkQueue
	Candidates CandidateFunc
	Active     func() bool
	OnAdded    func(id string)
	OnRejected func(value string)
}

func NewSynchronizer(q *WorkQueue, candidates CandidateFunc, active func() bool) *Synchronizer {
	return &Synchronizer{Queue: q, Candidates: candidates, Active: active}
}

// Sync enqueues every candidate not yet admitted in the current run and returns
// the identifiers it added, in observed order. It is a no-op while no run is
// active.
func (s *Synchronizer) Sync() []string {
	if s == nil || s.Candidates == nil {
		return nil
	}
	if s.Active != nil && !s.Active() {
		return nil
	}
	return s.Apply(s.Candidates())
}

// Apply is Sync with an explicit candidate list. Candidates that arrive after
// the queue was closed are dropped without being announced.
func (s *Synchronizer) Apply(candidates []string) []string {
	if s == nil || s.Queue == nil {
		return nil
	}
	if s.Active != nil && !s.Active() {
		return nil
	}
	added := []string{}
	for _, raw := range candidates {
		id := identifier.Normalize(raw)
		if !identifier.IsValid(id) {
			if s.OnRejected != nil && id != "" {
				s.OnRejected(raw)
			}
			continue
		}
		if s.Queue.Enqueue(id) {
			added = append(added, id)
			if s.OnAdded != nil {
				s.OnAdded(id)
			}
		}
	}
	return added
}
