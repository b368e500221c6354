// Package spin provides busy-wait locks that own the data they protect.
//
// The locks never park the caller. Lock, Read and Write retry until they
// succeed; TryLock, TryRead and TryWrite make a single attempt. There is no
// poisoning, no reentrancy and no fairness between waiters.
package spin

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
