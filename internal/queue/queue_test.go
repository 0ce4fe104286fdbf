package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idA = "https://youtu.be/aaaaaaaaaaa"
	idB = "https://youtu.be/bbbbbbbbbbb"
	idC = "https://youtu.be/ccccccccccc"
)

func TestEnqueueIsIdempotent(t *testing.T) {
	q := New()

	assert.True(t, q.Enqueue(idA))
	assert.False(t, q.Enqueue(idA))
	assert.Equal(t, 1, q.PendingCount())
}

func TestDequeueIsFIFO(t *testing.T) {
	q := New()
	for _, id := range []string{idA, idB, idC} {
		require.True(t, q.Enqueue(id))
	}

	for _, want := range []string{idA, idB, idC} {
		got, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestDequeuedIdentifierStaysSeen(t *testing.T) {
	q := New()
	q.Enqueue(idA)

	got, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, idA, got)

	assert.True(t, q.Seen(idA))
	assert.False(t, q.Enqueue(idA))
	assert.Equal(t, 0, q.PendingCount())
}

func TestResetClearsSeenSetAndSeedsInOrder(t *testing.T) {
	q := New()
	q.Enqueue(idA)
	_, _ = q.Dequeue()

	q.Reset([]string{idB, idA, idB})

	assert.Equal(t, []string{idB, idA}, q.Pending())
	assert.True(t, q.Seen(idA))
	assert.False(t, q.Seen(idC))
}

func TestConcurrentEnqueueAdmitsOnce(t *testing.T) {
	q := New()
	const producers = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	start := make(chan struct{})
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if q.Enqueue(idA) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, q.PendingCount())
}

func TestConcurrentEnqueueAndDequeueLosesNothing(t *testing.T) {
	q := New()
	ids := make([]string, 200)
	for i := range ids {
		ids[i] = "https://youtu.be/" + string(rune('a'+i%26)) + string(rune('A'+i/26)) + "000000000"
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			q.Enqueue(id)
		}
	}()

	got := []string{}
	for len(got) < len(ids) {
		if id, ok := q.Dequeue(); ok {
			got = append(got, id)
		}
	}
	wg.Wait()

	assert.Equal(t, ids, got)
}

func TestDequeueOrCloseStopsAdmissionUntilReset(t *testing.T) {
	q := New()
	q.Reset([]string{idA})

	id, ok := q.DequeueOrClose()
	require.True(t, ok)
	assert.Equal(t, idA, id)
	assert.False(t, q.Closed())

	_, ok = q.DequeueOrClose()
	assert.False(t, ok)
	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(idB))
	assert.Equal(t, 0, q.PendingCount())

	q.Reset(nil)
	assert.False(t, q.Closed())
	assert.True(t, q.Enqueue(idB))
}
