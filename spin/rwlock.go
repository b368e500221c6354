package spin

import "sync/atomic"

// The lock state packs the writer into bit 0 and the reader count above it.
const (
	writerBit  uint32 = 1
	readerUnit uint32 = 1 << 1
)

// RWLock is a reader/writer spin lock around a value of type T.
// Any number of readers or a single writer may hold it.
// The zero value is an unlocked RWLock holding the zero T.
type RWLock[T any] struct {
	_     noCopy
	state atomic.Uint32
	data  T
}

// ReadGuard grants shared access to the data of an RWLock.
type ReadGuard[T any] struct {
	l *RWLock[T]
}

// WriteGuard grants exclusive access to the data of an RWLock.
type WriteGuard[T any] struct {
	l *RWLock[T]
}

// NewRWLock returns an unlocked RWLock holding data.
func NewRWLock[T any](data T) *RWLock[T] {
	return &RWLock[T]{data: data}
}

// TryRead makes a single attempt to take shared access. It fails only if
// a writer holds the lock; a race with other readers is retried.
func (l *RWLock[T]) TryRead() (ReadGuard[T], bool) {
	for {
		s := l.state.Load()
		if s&writerBit != 0 {
			return ReadGuard[T]{}, false
		}
		if l.state.CompareAndSwap(s, s+readerUnit) {
			return ReadGuard[T]{l: l}, true
		}
	}
}

// TryWrite makes a single attempt to take exclusive access.
func (l *RWLock[T]) TryWrite() (WriteGuard[T], bool) {
	if l.state.CompareAndSwap(0, writerBit) {
		return WriteGuard[T]{l: l}, true
	}
	return WriteGuard[T]{}, false
}

// Read spins until shared access is granted.
func (l *RWLock[T]) Read() ReadGuard[T] {
	var spins int
	for {
		if g, ok := l.TryRead(); ok {
			return g
		}
		Relax(&spins)
	}
}

// Write spins until exclusive access is granted.
func (l *RWLock[T]) Write() WriteGuard[T] {
	var spins int
	for {
		if g, ok := l.TryWrite(); ok {
			return g
		}
		Relax(&spins)
	}
}

// ReaderCount returns the number of readers holding the lock. Advisory only.
func (l *RWLock[T]) ReaderCount() int {
	return int(l.state.Load() / readerUnit)
}

// WriterCount returns 1 if a writer holds the lock, 0 otherwise. Advisory only.
func (l *RWLock[T]) WriterCount() int {
	return int(l.state.Load() & writerBit)
}

// ForceReadDecrement drops one reader without a guard. Calling it more
// often than readers were admitted corrupts the lock.
func (l *RWLock[T]) ForceReadDecrement() {
	l.state.Add(^(readerUnit - 1))
}

// ForceWriteUnlock clears the writer without a guard.
func (l *RWLock[T]) ForceWriteUnlock() {
	l.state.And(^writerBit)
}

// GetMut returns a pointer to the data without locking. The caller must
// own l exclusively; it panics if l is currently held.
func (l *RWLock[T]) GetMut() *T {
	if l.state.Load() != 0 {
		panic("spin: GetMut on a locked RWLock")
	}
	return &l.data
}

// IntoInner returns the data. The caller must own l exclusively and stop
// using it afterwards.
func (l *RWLock[T]) IntoInner() T {
	if l.state.Load() != 0 {
		panic("spin: IntoInner on a locked RWLock")
	}
	return l.data
}

// Get returns a pointer to the protected data, valid until Unlock. The
// data must not be modified through it.
func (g *ReadGuard[T]) Get() *T {
	if g.l == nil {
		panic("spin: use of a released ReadGuard")
	}
	return &g.l.data
}

// Unlock gives up shared access. It panics if the guard was already released.
func (g *ReadGuard[T]) Unlock() {
	if g.l == nil {
		panic("spin: unlock of a released ReadGuard")
	}
	l := g.l
	g.l = nil
	l.state.Add(^(readerUnit - 1))
}

// Get returns a pointer to the protected data, valid until Unlock.
func (g *WriteGuard[T]) Get() *T {
	if g.l == nil {
		panic("spin: use of a released WriteGuard")
	}
	return &g.l.data
}

// Unlock gives up exclusive access. It panics if the guard was already released.
func (g *WriteGuard[T]) Unlock() {
	if g.l == nil {
		panic("spin: unlock of a released WriteGuard")
	}
	l := g.l
	g.l = nil
	l.state.And(^writerBit)
}
