//go:build baremetal && (amd64 || arm64 || riscv64)

package arch

// Default returns the controller for the executing CPU.
func Default() Controller {
	return cpu{}
}

// CurrentCore reports core 0. Bare-metal targets run on the boot core only.
func CurrentCore() int {
	return 0
}
