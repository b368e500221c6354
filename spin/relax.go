package spin

import "runtime"

// spinsBeforeYield bounds how long a waiter burns its time slice before
// handing the processor to someone else.
const spinsBeforeYield = 16

// Relax is called once per failed attempt inside a busy-wait loop. spins
// is the caller's loop-local counter.
func Relax(spins *int) {
	*spins++
	if *spins > spinsBeforeYield {
		*spins = 0
		runtime.Gosched()
	}
}
