package irqsafety

import (
	"sync/atomic"

	"github.com/nsmithuk/irqsafety/arch"
)

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Option configures a Mutex or RWLock.
type Option func(*options)

type options struct {
	ctl arch.Controller
}

// WithController binds the lock to ctl instead of arch.Default().
func WithController(ctl arch.Controller) Option {
	return func(o *options) {
		o.ctl = ctl
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Stats counts acquisition attempts on a lock. Counters are read without
// synchronization and are only indicative.
type Stats struct {
	Exclusive uint64 // Exclusive or write guards handed out.
	Shared    uint64 // Read guards handed out.
	Rejected  uint64 // Attempts refused by the occupancy hint, interrupts untouched.
	Failed    uint64 // Attempts that disabled interrupts and then lost the race.
}

// StatsSource is implemented by Mutex and RWLock.
type StatsSource interface {
	Stats() Stats
}

type lockStats struct {
	exclusive atomic.Uint64
	shared    atomic.Uint64
	rejected  atomic.Uint64
	failed    atomic.Uint64
}

func (s *lockStats) snapshot() Stats {
	return Stats{
		Exclusive: s.exclusive.Load(),
		Shared:    s.shared.Load(),
		Rejected:  s.rejected.Load(),
		Failed:    s.failed.Load(),
	}
}
