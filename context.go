package zipc

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/karlbohlmark/zipc/queue"
	"github.com/karlbohlmark/zipc/region"
)

// Role distinguishes which end of the channel a Context drives.
type Role int

const (
	// RoleSender may only call Send.
	RoleSender Role = iota
	// RoleReceiver may only call Receive and ReceiveBlocking.
	RoleReceiver
)

func (r Role) String() string {
	if r == RoleReceiver {
		return "receiver"
	}
	return "sender"
}

// Context is one endpoint of a ZIPC channel, bound to a single mapped
// region and role.
//
// At most one goroutine may drive a Sender Context's operations at a time;
// at most one goroutine may drive a Receiver Context's operations at a
// time. A Sender goroutine and a Receiver goroutine may run concurrently
// against the same channel without further coordination — that is the
// entire point of the design.
type Context struct {
	role   Role
	region *region.Region
	ring   *queue.Ring
	id     string
}

// Name returns the channel name this Context was opened with.
func (c *Context) Name() string { return c.region.Name() }

// ID returns a stable, process-local identifier for this endpoint,
// suitable for log correlation across the two peers of a channel.
func (c *Context) ID() string { return c.id }

// QueueSize returns the channel's ring capacity in messages.
func (c *Context) QueueSize() uint32 { return c.region.QueueSize() }

// MessageSize returns the channel's maximum payload size in bytes.
func (c *Context) MessageSize() uint32 { return c.region.MessageSize() }

// CreateSender runs the creator path: it creates (or re-attaches to) the
// named region and returns a Sender-role Context. queueSize must be a
// power of two.
func CreateSender(name string, queueSize, messageSize uint32) (*Context, error) {
	r, err := region.Create(name, queueSize, messageSize)
	if err != nil {
		return nil, fmt.Errorf("zipc: create sender %s: %w", name, err)
	}
	return newContext(RoleSender, r), nil
}

// CreateReceiver runs the attacher path: it attaches to the named region
// and returns a Receiver-role Context. If the region does not yet exist,
// CreateReceiver fails; use WaitForInitialization instead for the
// receiver-first rendezvous scenario (§4.3 of the external interface).
func CreateReceiver(name string, queueSize, messageSize uint32) (*Context, error) {
	r, err := region.Attach(name, queueSize, messageSize)
	if err != nil {
		return nil, fmt.Errorf("zipc: create receiver %s: %w", name, err)
	}
	return newContext(RoleReceiver, r), nil
}

func newContext(role Role, r *region.Region) *Context {
	return &Context{
		role:   role,
		region: r,
		ring:   queue.New(r.Header(), r.Slots(), r.QueueSize(), r.MessageSize()),
		id:     newEndpointID(role),
	}
}

// WaitForInitialization blocks until name's region has been published by
// its creating Sender, then attaches to it as a Receiver. It is the
// mechanism by which a Receiver started before any Sender exists can park
// safely instead of racing the creation.
func WaitForInitialization(name string, queueSize, messageSize uint32) (*Context, error) {
	if _, err := region.ShmPath(name); err != nil {
		return nil, fmt.Errorf("zipc: wait for initialization %s: %w", name, err)
	}

	for {
		r, err := region.Attach(name, queueSize, messageSize)
		if err == nil {
			if r.Header().InitFlag.Load() != 1 {
				region.WaitForInitialization(r.Header())
			}
			return newContext(RoleReceiver, r), nil
		}
		if !errors.Is(err, unix.ENOENT) {
			return nil, fmt.Errorf("zipc: wait for initialization %s: %w", name, err)
		}
		// The region file does not exist yet (or is not yet sized); poll
		// for it again after a fixed initialPollInterval sleep.
		time.Sleep(initialPollInterval)
	}
}

const initialPollInterval = 1 * time.Millisecond

// Unlink removes name from the shared-memory namespace. It is idempotent:
// unlinking a name that does not exist succeeds silently.
func Unlink(name string) error {
	return region.Unlink(name)
}

// ShmPath returns the absolute filesystem path a channel name maps to.
func ShmPath(name string) (string, error) {
	return region.ShmPath(name)
}

// Close releases the Context's mapping. It does not unlink the channel
// from the namespace — call Unlink separately once no peer needs it.
func (c *Context) Close() error {
	return c.region.Close()
}
