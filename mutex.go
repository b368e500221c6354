package irqsafety

import (
	"fmt"

	"github.com/nsmithuk/irqsafety/arch"
	"github.com/nsmithuk/irqsafety/spin"
)

// Mutex is an interrupt-safe spin lock around a value of type T.
//
// It behaves like spin.Mutex, with the added behaviour of holding
// interrupts for the lifetime of each guard. There is no lock poisoning:
// if the holder never releases, every later Lock spins forever.
//
// The zero value is an unlocked Mutex holding the zero T, bound to
// arch.Default().
type Mutex[T any] struct {
	lock  spin.Mutex[T]
	ctl   arch.Controller
	stats lockStats
}

// MutexGuard grants access to the data of a locked Mutex. Unlock releases
// the lock and then restores interrupts.
type MutexGuard[T any] struct {
	inner spin.MutexGuard[T]
	held  HeldInterrupts
}

// NewMutex creates a new spinlock wrapping the supplied data.
func NewMutex[T any](data T, opts ...Option) *Mutex[T] {
	m := &Mutex[T]{ctl: newOptions(opts).ctl}
	*m.lock.GetMut() = data
	return m
}

// Lock spins until the lock is acquired and returns a guard. The guard must
// be released with Unlock on the same goroutine.
//
//	g := m.Lock()
//	defer g.Unlock()
//	*g.Get() += 1
//
// Interrupts are restored between attempts, so a contended Lock does not
// keep them disabled while it waits.
func (m *Mutex[T]) Lock() *MutexGuard[T] {
	var spins int
	for {
		if g, ok := m.TryLock(); ok {
			return g
		}
		spin.Relax(&spins)
	}
}

// TryLock makes a single attempt to lock m. If m is already locked it
// returns false; when that is visible up front, interrupts are not touched
// at all.
func (m *Mutex[T]) TryLock() (*MutexGuard[T], bool) {
	if m.lock.IsLocked() {
		m.stats.rejected.Add(1)
		return nil, false
	}

	g := &MutexGuard[T]{}
	g.held.hold(m.ctl)

	inner, ok := m.lock.TryLock()
	if !ok {
		g.held.Release()
		m.stats.failed.Add(1)
		return nil, false
	}
	g.inner = inner

	m.stats.exclusive.Add(1)
	return g, true
}

// IsLocked reports whether m is held. Advisory only.
func (m *Mutex[T]) IsLocked() bool {
	return m.lock.IsLocked()
}

// ForceUnlock releases the lock without restoring interrupts.
//
// This is extremely unsafe if the lock is not held by the current core, but
// it can be useful when the lock is exposed across a foreign-call boundary
// that cannot carry a guard. If the lock isn't held, this is a no-op.
func (m *Mutex[T]) ForceUnlock() {
	m.lock.ForceUnlock()
}

// GetMut returns a pointer to the data without locking and without touching
// interrupts. The caller must own m exclusively, so that no guard can be
// outstanding; it panics if one is.
func (m *Mutex[T]) GetMut() *T {
	return m.lock.GetMut()
}

// IntoInner returns the data. The caller must own m exclusively and stop
// using it afterwards.
func (m *Mutex[T]) IntoInner() T {
	return m.lock.IntoInner()
}

// Stats returns the acquisition counters of m.
func (m *Mutex[T]) Stats() Stats {
	return m.stats.snapshot()
}

// String reports the data if m is free and a placeholder if it is locked.
// It never spins.
func (m *Mutex[T]) String() string {
	h := HoldInterruptsWith(m.ctl)
	defer h.Release()

	g, ok := m.lock.TryLock()
	if !ok {
		return "Mutex{<locked>}"
	}
	defer g.Unlock()
	return fmt.Sprintf("Mutex{data: %v}", *g.Get())
}

// Get returns a pointer to the protected data, valid until Unlock.
func (g *MutexGuard[T]) Get() *T {
	return g.inner.Get()
}

// Unlock releases the lock, then restores interrupts. The order is fixed.
func (g *MutexGuard[T]) Unlock() {
	g.held.check()
	g.inner.Unlock()
	g.held.Release()
}
