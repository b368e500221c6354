package irqsafety

// GuardRef is an owning reference: it keeps a guard alive and exposes a
// pointer into the data that guard protects. Go never moves heap objects,
// so the pointer stays valid until Unlock.
type GuardRef[U any] struct {
	ptr     *U
	release func()
}

// Get returns the projected pointer.
func (r *GuardRef[U]) Get() *U {
	return r.ptr
}

// Unlock releases the guard the reference was built from.
func (r *GuardRef[U]) Unlock() {
	r.release()
}

// MapMutexGuard narrows g to the part of its data selected by f. The
// returned reference takes over g: unlock it instead of g.
func MapMutexGuard[T, U any](g *MutexGuard[T], f func(*T) *U) *GuardRef[U] {
	return &GuardRef[U]{ptr: f(g.Get()), release: g.Unlock}
}

// MapReadGuard narrows a read guard. The data must not be modified through
// the returned reference.
func MapReadGuard[T, U any](g *ReadGuard[T], f func(*T) *U) *GuardRef[U] {
	return &GuardRef[U]{ptr: f(g.Get()), release: g.Unlock}
}

// MapWriteGuard narrows a write guard.
func MapWriteGuard[T, U any](g *WriteGuard[T], f func(*T) *U) *GuardRef[U] {
	return &GuardRef[U]{ptr: f(g.Get()), release: g.Unlock}
}
