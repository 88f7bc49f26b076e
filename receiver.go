package zipc

import (
	"fmt"
	"time"

	"code.hybscloud.com/iox"

	"github.com/karlbohlmark/zipc/region"
	"github.com/karlbohlmark/zipc/wake"
)

func tailAddr(c *Context) *uint32 {
	return region.TailAddr(c.region.Header())
}

// Receive performs a non-blocking dequeue. It returns (nil, 0, nil) when
// the queue is empty. The returned slice aliases mapped memory directly —
// zero-copy — and is only valid until the next Receive call on the same
// Context; callers that need to retain the bytes must copy them.
//
// Receive must only be called from the channel's single consumer.
func (c *Context) Receive() ([]byte, int, error) {
	if c.role != RoleReceiver {
		return nil, 0, fmt.Errorf("zipc: Receive called on a %v context", c.role)
	}

	payload, err := c.ring.Dequeue()
	if iox.IsWouldBlock(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return payload, len(payload), nil
}

// ReceiveBlocking is Receive, except that when the queue is empty it parks
// (via the platform wake primitive) for up to timeout before giving up.
// timeout must be less than one second, matching the protocol's bounded-
// wait contract; callers needing a longer wait should loop.
//
// On timeout it returns (nil, 0, nil) — the same empty result as a
// non-blocking Receive, with no distinguishable error. Use ErrTimeout only
// to identify the case via a returned error from a wrapping caller; this
// method intentionally keeps success-path and timeout-path returns
// identical in shape, per the external interface's receive_blocking
// contract.
func (c *Context) ReceiveBlocking(timeout time.Duration) ([]byte, int, error) {
	if c.role != RoleReceiver {
		return nil, 0, fmt.Errorf("zipc: ReceiveBlocking called on a %v context", c.role)
	}
	if timeout >= time.Second {
		return nil, 0, ErrTimeoutTooLarge
	}

	deadline := time.Now().Add(timeout)
	addr := tailAddr(c)

	for {
		payload, err := c.ring.Dequeue()
		if err == nil {
			return payload, len(payload), nil
		}
		if !iox.IsWouldBlock(err) {
			return nil, 0, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, 0, nil
		}

		snapshot := c.region.Header().Tail.Load()
		waitErr := wake.Default.Wait(addr, snapshot, remaining)
		if waitErr != nil && waitErr != wake.ErrTimeout {
			return nil, 0, waitErr
		}
		// Either a real wake, a spurious wake, or a timeout: loop back and
		// re-check the queue. If the deadline has passed the next
		// iteration's remaining<=0 check returns empty.
	}
}
