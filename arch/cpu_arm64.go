//go:build baremetal

package arch

// DAIF mask bits. Set means masked.
const (
	daifI = 1 << 7 // IRQ
	daifF = 1 << 6 // FIQ
)

func irqUnmask()
func irqMask()
func fiqUnmask()
func fiqMask()
func daif() uint64

// cpu treats IRQ as the regular class and FIQ as the fast class.
type cpu struct{}

//go:nosplit
func (cpu) Enable() { irqUnmask() }

//go:nosplit
func (cpu) Disable() { irqMask() }

//go:nosplit
func (cpu) Enabled() bool { return daif()&daifI == 0 }

//go:nosplit
func (cpu) EnableFast() { fiqUnmask() }

//go:nosplit
func (cpu) DisableFast() { fiqMask() }

//go:nosplit
func (cpu) FastEnabled() bool { return daif()&daifF == 0 }
