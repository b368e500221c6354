package spin

import "sync/atomic"

const (
	unlocked uint32 = 0
	locked   uint32 = 1
)

// Mutex is a test-and-set spin lock around a value of type T.
// The zero value is an unlocked Mutex holding the zero T.
type Mutex[T any] struct {
	_     noCopy
	state atomic.Uint32
	data  T
}

// MutexGuard grants access to the data of a locked Mutex.
type MutexGuard[T any] struct {
	m *Mutex[T]
}

// NewMutex returns an unlocked Mutex holding data.
func NewMutex[T any](data T) *Mutex[T] {
	return &Mutex[T]{data: data}
}

// TryLock makes a single attempt to lock m.
func (m *Mutex[T]) TryLock() (MutexGuard[T], bool) {
	if m.state.CompareAndSwap(unlocked, locked) {
		return MutexGuard[T]{m: m}, true
	}
	return MutexGuard[T]{}, false
}

// Lock spins until m is locked.
func (m *Mutex[T]) Lock() MutexGuard[T] {
	var spins int
	for {
		for m.state.Load() == locked {
			Relax(&spins)
		}
		if g, ok := m.TryLock(); ok {
			return g
		}
	}
}

// IsLocked reports whether m is held. The answer may be stale by the time
// it is returned.
func (m *Mutex[T]) IsLocked() bool {
	return m.state.Load() == locked
}

// ForceUnlock releases m without a guard. Any guard still outstanding
// becomes invalid; the caller must know no one is using the data.
func (m *Mutex[T]) ForceUnlock() {
	m.state.Store(unlocked)
}

// GetMut returns a pointer to the data without locking. The caller must
// own m exclusively; it panics if m is currently held.
func (m *Mutex[T]) GetMut() *T {
	if m.IsLocked() {
		panic("spin: GetMut on a locked Mutex")
	}
	return &m.data
}

// IntoInner returns the data. The caller must own m exclusively and stop
// using it afterwards.
func (m *Mutex[T]) IntoInner() T {
	if m.IsLocked() {
		panic("spin: IntoInner on a locked Mutex")
	}
	return m.data
}

// Get returns a pointer to the protected data, valid until Unlock.
func (g *MutexGuard[T]) Get() *T {
	if g.m == nil {
		panic("spin: use of a released MutexGuard")
	}
	return &g.m.data
}

// Unlock releases the lock. It panics if the guard was already released.
func (g *MutexGuard[T]) Unlock() {
	if g.m == nil {
		panic("spin: unlock of a released MutexGuard")
	}
	m := g.m
	g.m = nil
	m.state.Store(unlocked)
}
