//go:build baremetal

package arch

// rflagsIF is the interrupt-enable flag. Set means deliverable.
const rflagsIF = 1 << 9

func sti()
func cli()
func rflags() uint64

// cpu drives maskable interrupts. x86 has no separate fast class and NMIs
// cannot be masked, so cpu is not a FastController.
type cpu struct{}

//go:nosplit
func (cpu) Enable() { sti() }

//go:nosplit
func (cpu) Disable() { cli() }

//go:nosplit
func (cpu) Enabled() bool { return rflags()&rflagsIF != 0 }
