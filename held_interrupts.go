package irqsafety

import (
	"fmt"
	"runtime"

	"github.com/nsmithuk/irqsafety/arch"
)

// HeldInterrupts is a handle for frozen interrupts. While it is held,
// regular interrupts are disabled on the core that created it.
//
// A HeldInterrupts must not be copied, and must be released on the
// goroutine (and therefore the core) that created it.
type HeldInterrupts struct {
	_       noCopy
	ctl     arch.Controller // Controller the snapshot was taken from.
	core    int             // Core that disabled interrupts.
	enabled bool            // Interrupt state found at hold time.
	saved   arch.State      // Full mask found at hold time, if ctl is an arch.Saver.
	held    bool            // False once released.
}

// HoldInterrupts disables interrupts on the current core until the returned
// handle is released. Releasing it returns interrupts to their prior state;
// they are not blindly re-enabled.
func HoldInterrupts() *HeldInterrupts {
	return HoldInterruptsWith(nil)
}

// HoldInterruptsWith is HoldInterrupts against a specific controller.
// A nil controller means arch.Default().
func HoldInterruptsWith(ctl arch.Controller) *HeldInterrupts {
	h := &HeldInterrupts{}
	h.hold(ctl)
	return h
}

// hold fills in h in place so that guards can embed the token without an
// extra allocation.
func (h *HeldInterrupts) hold(ctl arch.Controller) {
	if ctl == nil {
		ctl = arch.Default()
	}

	// The goroutine must not migrate while the mask is changed.
	runtime.LockOSThread()

	h.ctl = ctl
	h.core = arch.CurrentCore()
	h.enabled = ctl.Enabled()
	if s, ok := ctl.(arch.Saver); ok {
		h.saved = s.Save()
	}
	ctl.Disable()
	h.held = true

	trace(h, "hold_interrupts(): disabled interrupts")
}

// WereEnabled reports whether interrupts were enabled when h was taken.
func (h *HeldInterrupts) WereEnabled() bool {
	return h.enabled
}

// Release restores the interrupt state captured by h: interrupts are
// enabled again only if they were enabled before, and a controller with a
// wider mask gets that exact mask back. It panics if h was already
// released or if it is called on a different core.
func (h *HeldInterrupts) Release() {
	h.check()
	h.held = false

	trace(h, "hold_interrupts(): restoring interrupts")
	if s, ok := h.ctl.(arch.Saver); ok {
		s.Restore(h.saved)
	} else if h.enabled {
		h.ctl.Enable()
	}

	runtime.UnlockOSThread()
}

// check panics unless h is still held and the caller runs on the core that
// took it. Guards call it before touching their lock.
func (h *HeldInterrupts) check() {
	if !h.held {
		panic("irqsafety: release of released HeldInterrupts")
	}
	if core := arch.CurrentCore(); core != h.core {
		panic(fmt.Sprintf("irqsafety: HeldInterrupts taken on core %d released on core %d", h.core, core))
	}
}
