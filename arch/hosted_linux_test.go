//go:build linux && !baremetal && (amd64 || arm64 || riscv64)

package arch

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func restore(c Controller, enabled bool) {
	if enabled {
		c.Enable()
	} else {
		c.Disable()
	}
}

func TestSignalMask_DisableEnable(t *testing.T) {
	// Disable blocks the regular signal set on this thread and Enable unblocks it.

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := Default()
	before := c.Enabled()
	defer restore(c, before)

	c.Disable()
	assert.False(t, c.Enabled())

	c.Enable()
	assert.True(t, c.Enabled())
}

func TestSignalMask_FastIndependentOfRegular(t *testing.T) {
	// Toggling the fast class never changes the regular flag.

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := Default()
	fc, ok := c.(FastController)
	if !assert.True(t, ok) {
		return
	}

	before := c.Enabled()
	fastBefore := fc.FastEnabled()
	defer func() {
		restore(c, before)
		if fastBefore {
			fc.EnableFast()
		} else {
			fc.DisableFast()
		}
	}()

	c.Enable()
	fc.DisableFast()
	assert.True(t, c.Enabled())
	assert.False(t, fc.FastEnabled())

	fc.EnableFast()
	c.Disable()
	assert.False(t, c.Enabled())
	assert.True(t, fc.FastEnabled())
}

func TestSignalMask_StateIsPerThread(t *testing.T) {
	// Masking on one thread does not mask another thread.

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := Default()
	before := c.Enabled()
	defer restore(c, before)
	c.Disable()

	other := make(chan bool)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		c.Enable()
		other <- c.Enabled()
	}()

	assert.True(t, <-other)
	assert.False(t, c.Enabled())
}

func TestCurrentCore_IsThreadID(t *testing.T) {
	// Two goroutines locked to their own threads report different cores.

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	mine := CurrentCore()
	theirs := make(chan int)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		theirs <- CurrentCore()
	}()

	assert.NotEqual(t, mine, <-theirs)
	assert.Equal(t, mine, CurrentCore())
}

func TestSignalMask_RestoreKeepsPartialMaskAndFastClass(t *testing.T) {
	// Restore brings back exactly the regular signals that were blocked at Save and leaves the fast
	// class where it is now.

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := Default()
	s := c.(Saver)
	fc := c.(FastController)
	orig := s.Save()
	fastBefore := fc.FastEnabled()
	defer func() {
		s.Restore(orig)
		if fastBefore {
			fc.EnableFast()
		} else {
			fc.DisableFast()
		}
	}()

	c.Enable()
	var hup unix.Sigset_t
	sigaddset(&hup, unix.SIGHUP)
	sigprocmask(unix.SIG_BLOCK, &hup)
	fc.EnableFast()
	partial := s.Save()

	c.Disable()
	fc.DisableFast()
	s.Restore(partial)

	after := s.Save()
	for i := range regularSet.Val {
		assert.Equal(t, partial.words[i]&regularSet.Val[i], after.words[i]&regularSet.Val[i])
	}
	assert.False(t, c.Enabled())
	assert.False(t, fc.FastEnabled())

	sigprocmask(unix.SIG_UNBLOCK, &hup)
	assert.True(t, c.Enabled())
}
