package compact

import "sync"

// StateMachine tracks the item currently downloading and the run totals that
// feed the live progress line. Every item queued during a run raises Queued,
// so the overall fraction stays meaningful while producers keep adding work.
type StateMachine struct {
	mu    sync.Mutex
	state ProgressModel
}

func NewStateMachine() *StateMachine {
	m := &StateMachine{}
	m.Reset()
	return m
}

func (m *StateMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = ProgressModel{Item: ItemProgress{Lifecycle: ItemLifecycleIdle}}
}

func (m *StateMachine) Enqueue(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Run.Queued += clampCount(count)
}

// SetQueued raises the queued total to at least total.
func (m *StateMachine) SetQueued(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if total > m.state.Run.Queued {
		m.state.Run.Queued = total
	}
}

func (m *StateMachine) BeginItem(identifier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Item = ItemProgress{Identifier: identifier, Lifecycle: ItemLifecyclePreparing}
	done := m.state.Run.Completed + m.state.Run.Failed
	if m.state.Run.Queued <= done {
		m.state.Run.Queued = done + 1
	}
}

func (m *StateMachine) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if title != "" {
		m.state.Item.Title = title
	}
}

func (m *StateMachine) SetLifecycle(lifecycle ItemLifecycle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Item.Lifecycle = lifecycle
	if lifecycle == ItemLifecycleSkipped {
		m.state.Item.AlreadyPresent = true
	}
}

func (m *StateMachine) SetProgress(fraction float64, speed, eta string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Item.ProgressPercent = ClampPercent(fraction * 100)
	m.state.Item.ProgressKnown = true
	m.state.Item.Speed = speed
	m.state.Item.ETA = eta
	if m.state.Item.Lifecycle == ItemLifecyclePreparing || m.state.Item.Lifecycle == ItemLifecycleIdle {
		m.state.Item.Lifecycle = ItemLifecycleDownloading
	}
}

// FinishItem closes the current item and returns its final state.
func (m *StateMachine) FinishItem(lifecycle ItemLifecycle) ItemProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.state.Item
	if item.AlreadyPresent && lifecycle == ItemLifecycleDone {
		lifecycle = ItemLifecycleSkipped
	}
	item.Lifecycle = lifecycle
	switch lifecycle {
	case ItemLifecycleDone, ItemLifecycleSkipped:
		m.state.Run.Completed++
	default:
		m.state.Run.Failed++
	}
	m.state.Item = ItemProgress{Lifecycle: ItemLifecycleIdle}
	return item
}

func (m *StateMachine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Item.Lifecycle != ItemLifecycleIdle
}

// GlobalProgressPercent blends finished items with the fraction of the
// current one.
func (m *StateMachine) GlobalProgressPercent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.state.Run.Queued
	if total <= 0 {
		return 0
	}
	done := m.state.Run.Completed + m.state.Run.Failed
	if done > total {
		done = total
	}
	partial := 0.0
	if m.state.Item.Lifecycle != ItemLifecycleIdle && m.state.Item.ProgressKnown {
		partial = m.state.Item.ProgressPercent / 100.0
	}
	return ClampPercent(((float64(done) + partial) / float64(total)) * 100.0)
}

func (m *StateMachine) Snapshot() ProgressModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func clampCount(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
