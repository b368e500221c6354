package arch

import "sync"

// Sim is an emulated core. It holds an interrupt-enable flag, a fast
// interrupt flag and the interrupts raised while delivery was masked.
//
// Handlers run on the goroutine that makes them deliverable, with regular
// interrupts masked for the duration of the handler, the way a CPU masks
// them on exception entry.
type Sim struct {
	mu          sync.Mutex
	enabled     bool     // Regular interrupts deliverable.
	fast        bool     // Fast interrupts deliverable.
	pending     []func() // Regular interrupts raised while masked.
	fastPending []func() // Fast interrupts raised while masked.
	enables     int      // Calls to Enable.
	disables    int      // Calls to Disable.
	onEnable    func()
	onDisable   func()
}

// NewSim returns an emulated core whose regular and fast interrupts start
// in the given state.
func NewSim(enabled bool) *Sim {
	return &Sim{enabled: enabled, fast: enabled}
}

// OnEnable installs fn to run at the start of every Enable call, before
// interrupts become deliverable. A nil fn removes the hook.
func (s *Sim) OnEnable(fn func()) {
	s.mu.Lock()
	s.onEnable = fn
	s.mu.Unlock()
}

// OnDisable installs fn to run at the end of every Disable call, once
// interrupts are masked. A nil fn removes the hook.
func (s *Sim) OnDisable(fn func()) {
	s.mu.Lock()
	s.onDisable = fn
	s.mu.Unlock()
}

func (s *Sim) Enable() {
	s.mu.Lock()
	hook := s.onEnable
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	s.mu.Lock()
	s.enabled = true
	s.enables++
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, h := range pending {
		s.deliver(h)
	}
}

func (s *Sim) Disable() {
	s.mu.Lock()
	s.enabled = false
	s.disables++
	hook := s.onDisable
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (s *Sim) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Sim) EnableFast() {
	s.mu.Lock()
	s.fast = true
	pending := s.fastPending
	s.fastPending = nil
	s.mu.Unlock()

	for _, h := range pending {
		h()
	}
}

func (s *Sim) DisableFast() {
	s.mu.Lock()
	s.fast = false
	s.mu.Unlock()
}

func (s *Sim) FastEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fast
}

// Raise signals a regular interrupt. If delivery is enabled the handler
// runs before Raise returns and Raise reports true. Otherwise the interrupt
// stays pending until the next Enable.
func (s *Sim) Raise(handler func()) bool {
	s.mu.Lock()
	if !s.enabled {
		s.pending = append(s.pending, handler)
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	s.deliver(handler)
	return true
}

// RaiseFast signals a fast interrupt. The regular flag does not mask it.
func (s *Sim) RaiseFast(handler func()) bool {
	s.mu.Lock()
	if !s.fast {
		s.fastPending = append(s.fastPending, handler)
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	handler()
	return true
}

// Pending returns the number of regular interrupts waiting for delivery.
func (s *Sim) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Toggles returns how many times Enable and Disable have been called.
func (s *Sim) Toggles() (enables, disables int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enables, s.disables
}

func (s *Sim) deliver(handler func()) {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()

	handler()

	s.mu.Lock()
	s.enabled = true
	nested := s.pending
	s.pending = nil
	s.mu.Unlock()

	// Interrupts raised by the handler itself.
	for _, h := range nested {
		s.deliver(h)
	}
}
