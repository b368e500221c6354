//go:build linux && !baremetal && (amd64 || arm64 || riscv64)

package arch

import "golang.org/x/sys/unix"

// On a hosted kernel the closest thing a thread has to maskable interrupts
// is asynchronous signal delivery. The regular class is the set of signals
// below; SIGUSR2 is the fast class.
var regularSignals = [...]unix.Signal{
	unix.SIGURG,
	unix.SIGPROF,
	unix.SIGALRM,
	unix.SIGUSR1,
	unix.SIGIO,
	unix.SIGCHLD,
	unix.SIGWINCH,
	unix.SIGHUP,
	unix.SIGINT,
	unix.SIGTERM,
}

const fastSignal = unix.SIGUSR2

var (
	regularSet unix.Sigset_t
	fastSet    unix.Sigset_t
)

func init() {
	for _, sig := range regularSignals {
		sigaddset(&regularSet, sig)
	}
	sigaddset(&fastSet, fastSignal)
}

func sigaddset(set *unix.Sigset_t, sig unix.Signal) {
	n := uint(sig) - 1
	set.Val[n/64] |= 1 << (n % 64)
}

// signalMask is a Controller over the calling thread's signal mask. The
// caller must keep its goroutine on one thread (runtime.LockOSThread) for
// the state to mean anything across calls.
type signalMask struct{}

var hosted signalMask

// Default returns the signal-mask controller.
func Default() Controller {
	return hosted
}

// CurrentCore returns the kernel thread id of the caller.
func CurrentCore() int {
	return unix.Gettid()
}

func (signalMask) Enable() {
	sigprocmask(unix.SIG_UNBLOCK, &regularSet)
}

func (signalMask) Disable() {
	sigprocmask(unix.SIG_BLOCK, &regularSet)
}

func (signalMask) Enabled() bool {
	return !blocked(&regularSet)
}

func (signalMask) EnableFast() {
	sigprocmask(unix.SIG_UNBLOCK, &fastSet)
}

func (signalMask) DisableFast() {
	sigprocmask(unix.SIG_BLOCK, &fastSet)
}

func (signalMask) FastEnabled() bool {
	return !blocked(&fastSet)
}

// Save returns the thread's whole signal mask.
func (signalMask) Save() State {
	var cur unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, nil, &cur); err != nil {
		panic("arch: pthread_sigmask: " + err.Error())
	}
	var st State
	copy(st.words[:], cur.Val[:])
	return st
}

// Restore sets the regular signals of the thread's mask to the blocked or
// unblocked state recorded in st. Signals outside the regular set keep
// their current state.
func (signalMask) Restore(st State) {
	var cur unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, nil, &cur); err != nil {
		panic("arch: pthread_sigmask: " + err.Error())
	}
	for i := range cur.Val {
		cur.Val[i] = cur.Val[i]&^regularSet.Val[i] | st.words[i]&regularSet.Val[i]
	}
	sigprocmask(unix.SIG_SETMASK, &cur)
}

func sigprocmask(how int, set *unix.Sigset_t) {
	if err := unix.PthreadSigmask(how, set, nil); err != nil {
		panic("arch: pthread_sigmask: " + err.Error())
	}
}

// blocked reports whether any signal of set is currently blocked.
func blocked(set *unix.Sigset_t) bool {
	var cur unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, nil, &cur); err != nil {
		panic("arch: pthread_sigmask: " + err.Error())
	}
	for i := range cur.Val {
		if cur.Val[i]&set.Val[i] != 0 {
			return true
		}
	}
	return false
}
