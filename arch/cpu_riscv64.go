//go:build baremetal

package arch

// sstatusSIE is the supervisor interrupt-enable bit. Set means deliverable.
const sstatusSIE = 1 << 1

func sieSet()
func sieClear()
func sstatus() uint64

// cpu drives supervisor interrupts. There is no fast class in S-mode.
type cpu struct{}

//go:nosplit
func (cpu) Enable() { sieSet() }

//go:nosplit
func (cpu) Disable() { sieClear() }

//go:nosplit
func (cpu) Enabled() bool { return sstatus()&sstatusSIE != 0 }
