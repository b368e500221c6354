//go:build !(baremetal && (amd64 || arm64 || riscv64)) && !(linux && !baremetal && (amd64 || arm64 || riscv64))

package arch

// Without a per-thread mask to manipulate, the process is treated as one
// emulated core.
var emulated = NewSim(true)

// Default returns the process-wide emulated core.
func Default() Controller {
	return emulated
}

// CurrentCore always reports core 0.
func CurrentCore() int {
	return 0
}
