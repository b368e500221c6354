// Package irqsafety provides spin locks that keep regular interrupts
// disabled on the acquiring core for as long as a guard is held.
//
// A core that holds a busy-wait lock and takes an interrupt whose handler
// wants the same lock will spin forever: the holder can never resume to
// release it. Mutex and RWLock prevent this by disabling interrupts before
// acquiring and restoring the interrupt state that was found, rather than
// unconditionally enabling it, after releasing.
//
// Releasing a guard always unlocks the data first and restores interrupts
// second, so an interrupt that fires during restoration sees the data
// already unlocked.
//
// Basic use:
//
//	counter := irqsafety.NewMutex(0)
//
//	g := counter.Lock()
//	*g.Get() += 2
//	g.Unlock()
//
// Guards, and the HeldInterrupts tokens inside them, belong to the core
// that created them. They must be released by the same goroutine, which
// stays pinned to its OS thread while the guard is held.
//
// Non-maskable and fast interrupts are not blocked. Their handlers must not
// touch these locks.
package irqsafety
