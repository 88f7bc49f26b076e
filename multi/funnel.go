// Package multi adds in-process multiplexing in front of a single ZIPC
// channel endpoint. The channel itself stays strictly single-producer/
// single-consumer (see the root zipc package); Funnel, Broadcast, and Pool
// let several goroutines share the one producer or consumer slot a channel
// permits.
//
// The staging rings here are FAA/SCQ bounded queues specialized to
// []byte messages — the same cycle-based, fetch-and-add algorithm this
// codebase's shared-memory lineage uses for its in-process queue family,
// adapted so the slot holds one staged payload instead of an arbitrary
// generic element.
package multi

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// mpscStage is a multi-producer single-consumer bounded ring staging
// []byte payloads ahead of a Funnel's single forwarder. Producers claim
// slots with FAA (SCQ-style), which needs 2n physical slots for capacity
// n.
type mpscStage struct {
	_        cacheLine
	head     atomix.Uint64 // forwarder index
	_        cacheLine
	tail     atomix.Uint64 // producer index, advanced by FAA
	_        cacheLine
	buffer   []mpscStageSlot
	capacity uint64
	size     uint64
	mask     uint64
}

type mpscStageSlot struct {
	cycle   atomix.Uint64
	payload []byte
	_       slotPad
}

func newMPSCStage(capacity int) *mpscStage {
	n := uint64(roundUpPow2(capacity))
	size := n * 2

	q := &mpscStage{
		buffer:   make([]mpscStageSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

func (q *mpscStage) enqueue(payload []byte) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
		if tail >= head+q.capacity {
			return iox.ErrWouldBlock
		}

		myTail := q.tail.AddAcqRel(1) - 1
		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity

		slotCycle := slot.cycle.LoadAcquire()
		if slotCycle == expectedCycle {
			slot.payload = payload
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return iox.ErrWouldBlock
		}
		sw.Once()
	}
}

func (q *mpscStage) dequeue() ([]byte, error) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]

	slotCycle := slot.cycle.LoadAcquire()
	if slotCycle != cycle+1 {
		return nil, iox.ErrWouldBlock
	}

	payload := slot.payload
	slot.payload = nil
	nextEnqCycle := (head + q.size) / q.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	q.head.StoreRelaxed(head + 1)

	return payload, nil
}

// Funnel aggregates many goroutines' messages behind one Sender Context:
// each caller enqueues into an in-process staging ring, and a single
// forwarder goroutine drains it into the channel, preserving the ZIPC
// contract that only one goroutine ever calls Context.Send.
type Funnel struct {
	q      *mpscStage
	send   func([]byte) error
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewFunnel starts a forwarder goroutine draining into send (typically
// (*zipc.Context).Send). capacity bounds the in-process staging queue,
// independent of the channel's own queue size.
func NewFunnel(capacity int, send func([]byte) error) *Funnel {
	f := &Funnel{
		q:      newMPSCStage(capacity),
		send:   send,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go f.run()
	return f
}

// Enqueue stages payload for forwarding. It is safe to call concurrently
// from any number of goroutines. Enqueue reports iox.ErrWouldBlock if the
// staging queue itself is full — distinct from the channel's own
// drop-newest overflow, which happens downstream in the forwarder.
func (f *Funnel) Enqueue(payload []byte) error {
	return f.q.enqueue(payload)
}

func (f *Funnel) run() {
	defer close(f.doneCh)
	for {
		select {
		case <-f.stopCh:
			f.drain()
			return
		default:
		}

		payload, err := f.q.dequeue()
		if iox.IsWouldBlock(err) {
			sw := spin.Wait{}
			sw.Once()
			continue
		}
		_ = f.send(payload)
	}
}

func (f *Funnel) drain() {
	for {
		payload, err := f.q.dequeue()
		if iox.IsWouldBlock(err) {
			return
		}
		_ = f.send(payload)
	}
}

// Close stops the forwarder goroutine after flushing any staged messages.
func (f *Funnel) Close() {
	close(f.stopCh)
	<-f.doneCh
}
