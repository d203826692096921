package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewerTicketSupersedesOlder(t *testing.T) {
	tr := NewTracker()

	first := tr.Begin("session-a")
	second := tr.Begin("session-a")

	assert.False(t, first.Current())
	assert.True(t, second.Current())
	assert.Greater(t, second.Generation(), first.Generation())
}

func TestKeysAreIndependent(t *testing.T) {
	tr := NewTracker()

	a := tr.Begin("a")
	b := tr.Begin("b")

	assert.True(t, a.Current())
	assert.True(t, b.Current())
}

func TestDoneClearsOnlyLatest(t *testing.T) {
	tr := NewTracker()

	old := tr.Begin("a")
	latest := tr.Begin("a")

	old.Done()
	assert.Equal(t, 1, tr.Len())

	latest.Done()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, uint64(0), tr.Latest("a"))
}

func TestStaleTicketAfterKeyReuse(t *testing.T) {
	tr := NewTracker()

	slow := tr.Begin("a")
	fast := tr.Begin("a")
	fast.Done()

	again := tr.Begin("a")
	assert.False(t, slow.Current())
	assert.True(t, again.Current())
}

func TestConcurrentBegin(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	seen := make(chan uint64, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- tr.Begin("a").Generation()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for g := range seen {
		unique[g] = true
	}
	assert.Len(t, unique, 100)
	assert.Equal(t, uint64(100), tr.Latest("a"))
}
