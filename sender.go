package zipc

import (
	"fmt"

	"code.hybscloud.com/iox"

	"github.com/karlbohlmark/zipc/wake"
)

// Send enqueues payload and wakes a parked Receiver.
//
// If the queue is full, Send silently drops the message: it returns nil,
// matching the drop-newest overflow policy. Send only returns a non-nil
// error for a payload that exceeds MessageSize, or when called on a
// Receiver-role Context; neither call makes a state change. Send must only
// be called from the channel's single producer.
func (c *Context) Send(payload []byte) error {
	if c.role != RoleSender {
		return fmt.Errorf("zipc: Send called on a %v context", c.role)
	}

	err := c.ring.Enqueue(payload)
	switch {
	case err == nil:
		wake.Default.Wake(tailAddr(c))
		return nil
	case iox.IsWouldBlock(err):
		return nil
	default:
		return err
	}
}
