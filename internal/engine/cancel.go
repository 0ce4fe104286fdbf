package engine

import (
	"sync"
	"sync/atomic"
)

// CancelToken is the run-scoped stop flag. It is set at most once; a new run
// gets a new token instead of clearing the old one.
type CancelToken struct {
	once sync.Once
	set  atomic.Bool
	done chan struct{}
}

func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

func (t *CancelToken) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.set.Store(true)
		close(t.done)
	})
}

func (t *CancelToken) Cancelled() bool {
	return t != nil && t.set.Load()
}

// Done is closed when Cancel is called. A nil token never fires.
func (t *CancelToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}
