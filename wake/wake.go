// Package wake provides the blocking wait/wake primitive ReceiveBlocking
// uses to sleep until a sender publishes a new message, instead of
// spinning the CPU for an unbounded duration.
//
// On Linux, Wait and Wake are backed directly by the futex(2) syscall
// against the tail counter's address, which is safe because the region
// is shared memory rather than process-private: the non-private futex
// operations are required here. Other platforms fall back to a bounded
// exponential poll using the same backoff primitive the rest of this
// codebase uses for spin-waiting.
package wake

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Wait when the deadline elapses before a Wake.
var ErrTimeout = errors.New("wake: timed out waiting for signal")

// Waiter blocks on and signals an address shared between processes.
type Waiter interface {
	// Wait blocks while *addr == expect, until timeout elapses or a Wake
	// observes the address having changed. A spurious return (addr still
	// equal to expect) is legal; callers must re-check their own condition
	// in a loop, matching the futex(2) contract.
	Wait(addr *uint32, expect uint32, timeout time.Duration) error
	// Wake wakes waiters blocked on addr.
	Wake(addr *uint32) error
}

// Default is the platform-appropriate Waiter.
var Default Waiter = newDefault()
