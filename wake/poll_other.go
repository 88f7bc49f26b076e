//go:build !linux

package wake

import (
	"sync/atomic"
	"time"

	"code.hybscloud.com/spin"
)

// pollWaiter backs Waiter on platforms without a shared-memory futex by
// polling the address with the same bounded exponential backoff used for
// spin-waiting elsewhere in this codebase. Wake is a no-op: there is
// nothing to signal, the next poll tick picks up the change.
type pollWaiter struct{}

func newDefault() Waiter { return pollWaiter{} }

func (pollWaiter) Wait(addr *uint32, expect uint32, timeout time.Duration) error {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = timeNow().Add(timeout)
	}

	sw := spin.Wait{}
	for atomic.LoadUint32(addr) == expect {
		if !deadline.IsZero() && timeNow().After(deadline) {
			return ErrTimeout
		}
		sw.Once()
	}
	return nil
}

func (pollWaiter) Wake(addr *uint32) error { return nil }

// timeNow is a var so it can be swapped out in tests without the package
// depending on a full clock abstraction.
var timeNow = time.Now
