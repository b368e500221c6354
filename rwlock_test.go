package irqsafety

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsmithuk/irqsafety/arch"
	"github.com/nsmithuk/irqsafety/spin"
)

func TestRWLock_WriteThenRead(t *testing.T) {
	// Data written under a write guard is visible to a later read guard.

	sim := arch.NewSim(true)
	l := NewRWLock(0, WithController(sim))

	w := l.Write()
	*w.Get() = 2
	w.Unlock()

	r := l.Read()
	assert.Equal(t, 2, *r.Get())
	r.Unlock()

	assert.True(t, sim.Enabled())
}

func TestRWLock_TryReadWithWriterCountSetLeavesInterruptsUntouched(t *testing.T) {
	// With the writer count already at 1, TryRead returns nothing without disabling interrupts.

	sim := arch.NewSim(true)
	l := NewRWLock(0, WithController(sim))

	inner, ok := l.rwlock.TryWrite()
	require.True(t, ok)
	require.Equal(t, 1, l.WriterCount())

	g, ok := l.TryRead()
	assert.False(t, ok)
	assert.Nil(t, g)

	enables, disables := sim.Toggles()
	assert.Equal(t, 0, enables)
	assert.Equal(t, 0, disables)
	assert.True(t, sim.Enabled())

	inner.Unlock()
}

func TestRWLock_TryWriteWithReadersLeavesInterruptsUntouched(t *testing.T) {
	// A reader rules out a writer on the fast path.

	sim := arch.NewSim(true)
	l := NewRWLock(0, WithController(sim))

	r := l.Read()
	_, disables := sim.Toggles()

	_, ok := l.TryWrite()
	assert.False(t, ok)

	_, d := sim.Toggles()
	assert.Equal(t, disables, d)
	assert.Equal(t, uint64(1), l.Stats().Rejected)

	r.Unlock()
}

func TestRWLock_TryReadLosingRaceRestoresInterrupts(t *testing.T) {
	// A writer that arrives between the occupancy check and the shared acquire makes TryRead give up,
	// restore the interrupt state it found and count a failed attempt.

	for _, initial := range []bool{true, false} {
		sim := arch.NewSim(initial)
		l := NewRWLock(0, WithController(sim))

		var rival spin.WriteGuard[int]
		sim.OnDisable(func() {
			sim.OnDisable(nil)
			var ok bool
			rival, ok = l.rwlock.TryWrite()
			require.True(t, ok)
		})

		r, ok := l.TryRead()
		assert.False(t, ok)
		assert.Nil(t, r)
		assert.Equal(t, initial, sim.Enabled())
		assert.Equal(t, Stats{Failed: 1}, l.Stats())

		rival.Unlock()
		assert.Equal(t, 0, l.WriterCount())
	}
}

func TestRWLock_TryWriteLosingRaceRestoresInterrupts(t *testing.T) {
	// A reader that arrives between the occupancy check and the exclusive acquire makes TryWrite give
	// up, restore the interrupt state it found and count a failed attempt.

	for _, initial := range []bool{true, false} {
		sim := arch.NewSim(initial)
		l := NewRWLock(0, WithController(sim))

		var rival spin.ReadGuard[int]
		sim.OnDisable(func() {
			sim.OnDisable(nil)
			var ok bool
			rival, ok = l.rwlock.TryRead()
			require.True(t, ok)
		})

		w, ok := l.TryWrite()
		assert.False(t, ok)
		assert.Nil(t, w)
		assert.Equal(t, initial, sim.Enabled())
		assert.Equal(t, Stats{Failed: 1}, l.Stats())

		rival.Unlock()
		assert.Equal(t, 0, l.ReaderCount())
	}
}

func TestRWLock_ReentrantReadUnderWriteFails(t *testing.T) {
	// A TryRead from the same core while a write guard is alive returns nothing and leaves the state intact.

	sim := arch.NewSim(true)
	l := NewRWLock(0, WithController(sim))

	w := l.Write()
	*w.Get() = 4

	r, ok := l.TryRead()
	assert.False(t, ok)
	assert.Nil(t, r)
	assert.Equal(t, 1, l.WriterCount())
	assert.Equal(t, 0, l.ReaderCount())
	assert.False(t, sim.Enabled())

	w.Unlock()
	assert.True(t, sim.Enabled())

	r, ok = l.TryRead()
	require.True(t, ok)
	assert.Equal(t, 4, *r.Get())
	r.Unlock()
}

func TestRWLock_ManyReaders(t *testing.T) {
	// Any number of readers share the lock and keep interrupts disabled until the last one, released in
	// reverse order, restores them.

	sim := arch.NewSim(true)
	l := NewRWLock("data", WithController(sim))

	r1 := l.Read()
	r2 := l.Read()
	r3 := l.Read()
	assert.Equal(t, 3, l.ReaderCount())
	assert.Equal(t, 0, l.WriterCount())
	assert.Equal(t, "data", *r2.Get())

	_, ok := l.TryWrite()
	assert.False(t, ok)

	r3.Unlock()
	r2.Unlock()
	assert.Equal(t, 1, l.ReaderCount())
	assert.False(t, sim.Enabled())

	r1.Unlock()
	assert.Equal(t, 0, l.ReaderCount())
	assert.True(t, sim.Enabled())
}

func TestRWLock_UnlocksBeforeRestoringInterrupts(t *testing.T) {
	// For both guard kinds the lock is free by the time interrupts are re-enabled.

	sim := arch.NewSim(true)
	l := NewRWLock(0, WithController(sim))

	var readers, writers []int
	sim.OnEnable(func() {
		readers = append(readers, l.ReaderCount())
		writers = append(writers, l.WriterCount())
	})

	l.Read().Unlock()
	l.Write().Unlock()

	assert.Equal(t, []int{0, 0}, readers)
	assert.Equal(t, []int{0, 0}, writers)
}

func TestRWLock_InterruptHandlerWaitsForWriter(t *testing.T) {
	// A handler that reads the lock is deferred past the writer and then sees the written value.

	sim := arch.NewSim(true)
	l := NewRWLock(0, WithController(sim))

	seen := -1
	w := l.Write()
	sim.Raise(func() {
		if r, ok := l.TryRead(); ok {
			seen = *r.Get()
			r.Unlock()
		}
	})
	*w.Get() = 9
	w.Unlock()

	assert.Equal(t, 9, seen)
}

func TestRWLock_ForceReleases(t *testing.T) {
	// The escape hatches free the lock but leave interrupt restoration to the guards' own tokens.

	sim := arch.NewSim(true)
	l := NewRWLock(0, WithController(sim))

	r := l.Read()
	l.ForceReadDecrement()
	assert.Equal(t, 0, l.ReaderCount())
	assert.False(t, sim.Enabled())
	r.held.Release()
	assert.True(t, sim.Enabled())

	w := l.Write()
	l.ForceWriteUnlock()
	assert.Equal(t, 0, l.WriterCount())
	assert.False(t, sim.Enabled())
	w.held.Release()
	assert.True(t, sim.Enabled())
}

func TestRWLock_GetMutAndString(t *testing.T) {
	// Lock-free access needs no toggles; formatting reports a placeholder only while a writer holds the lock.

	sim := arch.NewSim(true)
	l := NewRWLock(1, WithController(sim))

	*l.GetMut() = 3
	enables, disables := sim.Toggles()
	assert.Equal(t, 0, enables)
	assert.Equal(t, 0, disables)

	assert.Equal(t, "RWLock{data: 3}", l.String())

	r := l.Read()
	assert.Equal(t, "RWLock{data: 3}", l.String())
	assert.Panics(t, func() { l.GetMut() })
	r.Unlock()

	w := l.Write()
	assert.Equal(t, "RWLock{<locked>}", l.String())
	w.Unlock()

	assert.Equal(t, 3, l.IntoInner())
}

func TestRWLock_ConcurrentReadersAndWriters(t *testing.T) {
	// Readers never observe a writer, writers never overlap, and all increments land.

	l := NewRWLock(0)

	var violations atomic.Int32
	var writersActive atomic.Int32

	wg := &sync.WaitGroup{}
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			w := l.Write()
			if writersActive.Add(1) != 1 || l.ReaderCount() != 0 {
				violations.Add(1)
			}
			*w.Get() += 1
			writersActive.Add(-1)
			w.Unlock()
		}()
		go func() {
			defer wg.Done()
			r := l.Read()
			if writersActive.Load() != 0 || l.WriterCount() != 0 {
				violations.Add(1)
			}
			_ = *r.Get()
			r.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), violations.Load())
	assert.Equal(t, 200, l.IntoInner())

	stats := l.Stats()
	assert.Equal(t, uint64(200), stats.Exclusive)
	assert.Equal(t, uint64(200), stats.Shared)
}

func TestMapReadAndWriteGuards(t *testing.T) {
	// Owning references over read and write guards release the underlying guard.

	type config struct {
		name  string
		limit int
	}

	sim := arch.NewSim(true)
	l := NewRWLock(config{name: "a", limit: 1}, WithController(sim))

	wref := MapWriteGuard(l.Write(), func(c *config) *int { return &c.limit })
	*wref.Get() = 5
	wref.Unlock()
	assert.Equal(t, 0, l.WriterCount())

	rref := MapReadGuard(l.Read(), func(c *config) *string { return &c.name })
	assert.Equal(t, "a", *rref.Get())
	assert.Equal(t, 1, l.ReaderCount())
	rref.Unlock()

	assert.Equal(t, 0, l.ReaderCount())
	assert.True(t, sim.Enabled())
	assert.Equal(t, 5, l.IntoInner().limit)
}
