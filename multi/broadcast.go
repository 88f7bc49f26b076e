package multi

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// spmcStage is a single-producer multi-consumer bounded ring fanning one
// puller's []byte payloads out to a pool of workers. Consumers claim slots
// with FAA; threshold is a consumer-side budget: every enqueue resets it to
// size-1, every dequeue attempt decrements it, and dequeue reports empty
// once it drops below zero, so consumers that keep finding no ready slot
// stop claiming indices (the same livelock guard the SCQ algorithm uses).
type spmcStage struct {
	_         cacheLine
	head      atomix.Uint64 // consumer index, advanced by FAA
	_         cacheLine
	tail      atomix.Uint64 // producer index
	_         cacheLine
	threshold atomix.Int64
	_         cacheLine
	buffer    []spmcStageSlot
	capacity  uint64
	size      uint64
	mask      uint64
}

type spmcStageSlot struct {
	cycle   atomix.Uint64
	payload []byte
	_       slotPad
}

func newSPMCStage(capacity int) *spmcStage {
	n := uint64(roundUpPow2(capacity))
	size := n * 2

	q := &spmcStage{
		buffer:   make([]spmcStageSlot, size),
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

// catchup advances the tail index up to head when consumers' FAA on head
// has claimed indices past the producer, mirroring the SCQ catchup step
// used by the teacher's lock-free queue family.
func (q *spmcStage) catchup(tail, head uint64) {
	for !q.tail.CompareAndSwapAcqRel(tail, head) {
		head = q.head.LoadAcquire()
		tail = q.tail.LoadAcquire()
		if tail >= head {
			return
		}
	}
}

func (q *spmcStage) enqueue(payload []byte) error {
	tail := q.tail.AddAcqRel(1) - 1
	slot := &q.buffer[tail&q.mask]
	cycle := tail / q.capacity

	slotCycle := slot.cycle.LoadAcquire()
	if slotCycle != cycle {
		head := q.head.LoadAcquire()
		if tail-head >= q.capacity {
			q.tail.AddAcqRel(^uint64(0)) // undo the reservation
			return iox.ErrWouldBlock
		}
		return iox.ErrWouldBlock
	}

	slot.payload = payload
	slot.cycle.StoreRelease(cycle + 1)
	if q.threshold.LoadRelaxed() != int64(q.size-1) {
		q.threshold.StoreRelaxed(int64(q.size - 1))
	}
	return nil
}

func (q *spmcStage) dequeue() ([]byte, error) {
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

// Broadcast distributes a single Receiver Context's messages to a pool of
// worker goroutines: one puller goroutine is the channel's sole consumer,
// and it fans each dequeued message out through an in-process SPMC queue
// that the workers pull from.
type Broadcast struct {
	q      *spmcStage
	recv   func() ([]byte, int, error)
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBroadcast starts a puller goroutine reading from recv (typically
// (*zipc.Context).Receive) and fanning results out to the workers that call
// Dequeue. capacity bounds the in-process staging queue (rounded up to a
// power of two), independent of the number of workers.
func NewBroadcast(capacity int, recv func() ([]byte, int, error)) *Broadcast {
	b := &Broadcast{
		q:      newSPMCStage(capacity),
		recv:   recv,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go b.run()
	return b
}

// Dequeue is called by worker goroutines to pull the next fanned-out
// message. It reports iox.ErrWouldBlock when nothing is pending.
func (b *Broadcast) Dequeue() ([]byte, error) {
	return b.q.dequeue()
}

func (b *Broadcast) run() {
	defer close(b.doneCh)
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		payload, n, err := b.recv()
		if err != nil || n == 0 {
			sw := spin.Wait{}
			sw.Once()
			continue
		}

		msg := make([]byte, n)
		copy(msg, payload)

		for {
			err := b.q.enqueue(msg)
			if err == nil {
				break
			}
			if !iox.IsWouldBlock(err) {
				break
			}
			sw := spin.Wait{}
			sw.Once()
		}
	}
}

// Close stops the puller goroutine.
func (b *Broadcast) Close() {
	close(b.stopCh)
	<-b.doneCh
}
