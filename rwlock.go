package irqsafety

import (
	"fmt"

	"github.com/nsmithuk/irqsafety/arch"
	"github.com/nsmithuk/irqsafety/spin"
)

// RWLock is a reader/writer spin lock whose guards hold interrupts.
// It makes no promise about whether waiting readers or writers win.
//
// The zero value is an unlocked RWLock holding the zero T, bound to
// arch.Default().
type RWLock[T any] struct {
	rwlock spin.RWLock[T]
	ctl    arch.Controller
	stats  lockStats
}

// ReadGuard grants shared access to the data. When it is released the read
// count is decremented, potentially releasing the lock, and interrupts are
// restored.
type ReadGuard[T any] struct {
	inner spin.ReadGuard[T]
	held  HeldInterrupts
}

// WriteGuard grants exclusive access to the data. When it is released the
// lock is freed and interrupts are restored.
type WriteGuard[T any] struct {
	inner spin.WriteGuard[T]
	held  HeldInterrupts
}

// NewRWLock creates a new reader/writer spinlock wrapping the supplied data.
func NewRWLock[T any](data T, opts ...Option) *RWLock[T] {
	l := &RWLock[T]{ctl: newOptions(opts).ctl}
	*l.rwlock.GetMut() = data
	return l
}

// Read spins until shared access is granted. Other readers may hold the
// lock at the same time.
func (l *RWLock[T]) Read() *ReadGuard[T] {
	var spins int
	for {
		if g, ok := l.TryRead(); ok {
			return g
		}
		spin.Relax(&spins)
	}
}

// TryRead makes a single attempt to take shared access. It returns false
// straight away, without touching interrupts, while a writer holds the lock.
func (l *RWLock[T]) TryRead() (*ReadGuard[T], bool) {
	if l.rwlock.WriterCount() > 0 {
		l.stats.rejected.Add(1)
		return nil, false
	}

	g := &ReadGuard[T]{}
	g.held.hold(l.ctl)

	inner, ok := l.rwlock.TryRead()
	if !ok {
		g.held.Release()
		l.stats.failed.Add(1)
		return nil, false
	}
	g.inner = inner

	l.stats.shared.Add(1)
	return g, true
}

// Write spins until exclusive access is granted.
func (l *RWLock[T]) Write() *WriteGuard[T] {
	var spins int
	for {
		if g, ok := l.TryWrite(); ok {
			return g
		}
		spin.Relax(&spins)
	}
}

// TryWrite makes a single attempt to take exclusive access. It returns
// false straight away, without touching interrupts, while any reader or
// writer holds the lock.
func (l *RWLock[T]) TryWrite() (*WriteGuard[T], bool) {
	if l.rwlock.WriterCount() > 0 || l.rwlock.ReaderCount() > 0 {
		l.stats.rejected.Add(1)
		return nil, false
	}

	g := &WriteGuard[T]{}
	g.held.hold(l.ctl)

	inner, ok := l.rwlock.TryWrite()
	if !ok {
		g.held.Release()
		l.stats.failed.Add(1)
		return nil, false
	}
	g.inner = inner

	l.stats.exclusive.Add(1)
	return g, true
}

// ReaderCount returns the number of readers that currently hold the lock.
//
// This provides no synchronization guarantees and the result is out of date
// the instant it is returned. Do not use it for synchronization.
func (l *RWLock[T]) ReaderCount() int {
	return l.rwlock.ReaderCount()
}

// WriterCount returns the number of writers that currently hold the lock,
// either 0 or 1. Same caveats as ReaderCount.
func (l *RWLock[T]) WriterCount() int {
	return l.rwlock.WriterCount()
}

// ForceReadDecrement drops one reader without a guard and without
// restoring interrupts.
//
// This is extremely unsafe if read guards are outstanding, or if called
// more times than Read has been called.
func (l *RWLock[T]) ForceReadDecrement() {
	l.rwlock.ForceReadDecrement()
}

// ForceWriteUnlock clears exclusive write access without a guard and
// without restoring interrupts.
//
// This is extremely unsafe if a write guard is outstanding or if there are
// current readers.
func (l *RWLock[T]) ForceWriteUnlock() {
	l.rwlock.ForceWriteUnlock()
}

// GetMut returns a pointer to the data without locking and without touching
// interrupts. The caller must own l exclusively; it panics if a guard is
// outstanding.
func (l *RWLock[T]) GetMut() *T {
	return l.rwlock.GetMut()
}

// IntoInner returns the data. The caller must own l exclusively and stop
// using it afterwards.
func (l *RWLock[T]) IntoInner() T {
	return l.rwlock.IntoInner()
}

// Stats returns the acquisition counters of l.
func (l *RWLock[T]) Stats() Stats {
	return l.stats.snapshot()
}

// String reports the data if l can be read and a placeholder if a writer
// holds it. It never spins.
func (l *RWLock[T]) String() string {
	h := HoldInterruptsWith(l.ctl)
	defer h.Release()

	g, ok := l.rwlock.TryRead()
	if !ok {
		return "RWLock{<locked>}"
	}
	defer g.Unlock()
	return fmt.Sprintf("RWLock{data: %v}", *g.Get())
}

// Get returns a pointer to the protected data, valid until Unlock. The data
// must not be modified through a read guard.
func (g *ReadGuard[T]) Get() *T {
	return g.inner.Get()
}

// Unlock drops the shared access, then restores interrupts.
func (g *ReadGuard[T]) Unlock() {
	g.held.check()
	g.inner.Unlock()
	g.held.Release()
}

// Get returns a pointer to the protected data, valid until Unlock.
func (g *WriteGuard[T]) Get() *T {
	return g.inner.Get()
}

// Unlock drops the exclusive access, then restores interrupts.
func (g *WriteGuard[T]) Unlock() {
	g.held.check()
	g.inner.Unlock()
	g.held.Release()
}
