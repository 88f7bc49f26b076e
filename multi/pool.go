package multi

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// mpmcStage is a multi-producer multi-consumer bounded ring, combining the
// producer-side FAA claim from mpscStage with the consumer-side
// threshold/catchup livelock guard from spmcStage. Pool uses it to let a
// fleet of workers share both sides of a single ZIPC Context.
type mpmcStage struct {
	_         cacheLine
	head      atomix.Uint64
	_         cacheLine
	tail      atomix.Uint64
	_         cacheLine
	threshold atomix.Int64
	_         cacheLine
	draining  atomix.Bool
	_         cacheLine
	buffer    []mpmcStageSlot
	capacity  uint64
	size      uint64
	mask      uint64
}

type mpmcStageSlot struct {
	cycle   atomix.Uint64
	payload []byte
	_       slotPad
}

func newMPMCStage(capacity int) *mpmcStage {
	n := uint64(roundUpPow2(capacity))
	size := n * 2

	q := &mpmcStage{
		buffer:   make([]mpmcStageSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	q.threshold.StoreRelaxed(-1)
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

func (q *mpmcStage) catchup(tail, head uint64) {
	for !q.tail.CompareAndSwapAcqRel(tail, head) {
		head = q.head.LoadAcquire()
		tail = q.tail.LoadAcquire()
		if tail >= head {
			return
		}
	}
}

func (q *mpmcStage) enqueue(payload []byte) error {
	if q.draining.LoadAcquire() {
		return iox.ErrWouldBlock
	}

	sw := spin.Wait{}
	for {
		tail := q.tail.AddAcqRel(1) - 1
		slot := &q.buffer[tail&q.mask]
		cycle := tail / q.capacity

		for {
			slotCycle := slot.cycle.LoadAcquire()
			if slotCycle == cycle {
				slot.payload = payload
				slot.cycle.StoreRelease(cycle + 1)
				if q.threshold.LoadRelaxed() != int64(q.size-1) {
					q.threshold.StoreRelaxed(int64(q.size - 1))
				}
				return nil
			}
			if int64(slotCycle) < int64(cycle) {
				head := q.head.LoadAcquire()
				if tail-head >= q.capacity {
					return iox.ErrWouldBlock
				}
				break
			}
			sw.Once()
		}
	}
}

func (q *mpmcStage) dequeue() ([]byte, error) {
	if q.threshold.LoadRelaxed() < 0 {
		return nil, iox.ErrWouldBlock
	}

	sw := spin.Wait{}
	for {
		head := q.head.AddAcqRel(1) - 1
		slot := &q.buffer[head&q.mask]
		cycle := head/q.capacity + 1

		for {
			slotCycle := slot.cycle.LoadAcquire()
			if slotCycle == cycle {
				payload := slot.payload
				slot.payload = nil
				q.threshold.AddAcqRel(-1)
				return payload, nil
			}
			if int64(slotCycle) < int64(cycle) {
				tail := q.tail.LoadAcquire()
				if tail <= head+1 {
					q.catchup(tail, head+1)
					q.threshold.AddAcqRel(-1)
					return nil, iox.ErrWouldBlock
				}
				q.threshold.AddAcqRel(-1)
				break
			}
			sw.Once()
		}
		if q.threshold.LoadRelaxed() < 0 {
			return nil, iox.ErrWouldBlock
		}
	}
}

// drain marks the stage closed to new producers and lets existing
// consumers empty what's already staged.
func (q *mpmcStage) drain() {
	q.draining.StoreRelease(true)
}

// Pool lets a fleet of worker goroutines share a single ZIPC Context on
// both ends: producers stage outbound payloads through an in-process MPMC
// queue that one forwarder drains into Send, mirroring the shape
// cmd/zipc-bench uses to drive the channel at full concurrency without
// violating the channel's own single-producer contract.
type Pool struct {
	q *mpmcStage
}

// NewPool creates a Pool-local MPMC staging queue of the given capacity
// (rounded up to a power of two).
func NewPool(capacity int) *Pool {
	return &Pool{q: newMPMCStage(capacity)}
}

// Enqueue stages payload for forwarding by any worker. Safe for concurrent
// use by any number of producer goroutines.
func (p *Pool) Enqueue(payload []byte) error {
	return p.q.enqueue(payload)
}

// Dequeue claims the next staged payload. Safe for concurrent use by any
// number of consumer goroutines.
func (p *Pool) Dequeue() ([]byte, error) {
	return p.q.dequeue()
}

// Close stops the pool from accepting new payloads; staged payloads remain
// available to Dequeue until drained.
func (p *Pool) Close() {
	p.q.drain()
}
