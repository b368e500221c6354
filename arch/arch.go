// Package arch controls delivery of regular interrupts on the current core.
//
// Exactly one backend is compiled in, chosen by build constraints:
//
//   - baremetal && amd64:   STI/CLI, RFLAGS.IF
//   - baremetal && arm64:   DAIF.I for regular interrupts, DAIF.F for the fast class
//   - baremetal && riscv64: sstatus.SIE
//   - linux (64-bit, hosted): the calling thread's signal mask
//   - anything else: a single emulated core (see Sim)
//
// Every operation acts on the executing core only and cannot fail. A call
// into assembly or a system call is opaque to the compiler, so memory
// accesses inside a protected section are never moved across Enable or
// Disable.
package arch

// Controller reads and writes the regular-interrupt-enable flag of the
// executing core. Non-maskable and fast interrupts are not affected.
type Controller interface {
	// Enable makes regular interrupts deliverable.
	Enable()
	// Disable masks regular interrupts.
	Disable()
	// Enabled reports whether regular interrupts are deliverable. It has no side effects.
	Enabled() bool
}

// FastController is implemented by backends that have a secondary,
// higher-priority interrupt class. Its flag is independent of the
// regular one.
type FastController interface {
	EnableFast()
	DisableFast()
	FastEnabled() bool
}

// State is a saved copy of a backend's full interrupt-mask state. Its
// contents are only meaningful to the backend that produced it.
type State struct {
	words [16]uint64
}

// Saver is implemented by backends whose mask is wider than one flag.
// Enabled then only summarises the state, so a token must save and
// restore the whole mask rather than re-enable from a boolean.
type Saver interface {
	// Save returns the current mask state. It has no side effects.
	Save() State
	// Restore puts the regular-interrupt part of the mask back to st,
	// leaving the fast class as it is.
	Restore(st State)
}
