// Package queue implements the zero-copy single-producer/single-consumer
// ring that drives data through a mapped region's slot array.
//
// Enqueue and Dequeue never copy the payload into an intermediate buffer:
// Enqueue writes the caller's bytes straight into the mapped slot, and
// Dequeue returns a []byte aliasing the mapped slot directly. A dequeued
// slice is only valid until the next Dequeue call on the same Ring —
// callers that need to retain it must copy it themselves.
package queue

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"code.hybscloud.com/iox"

	"github.com/karlbohlmark/zipc/region"
)

// Ring is a lock-free SPSC ring bound to a region's control block and slot
// array. It does not own the underlying memory; the caller keeps the
// region mapped for the Ring's lifetime.
type Ring struct {
	hdr         *region.Header
	slots       unsafe.Pointer
	size        uint32
	mask        uint32
	messageSize uint32
	stride      uintptr
}

// New wraps the control block and slot array of a mapped region as a Ring.
// queueSize must be the same power-of-two the region was created with.
func New(hdr *region.Header, slots unsafe.Pointer, queueSize, messageSize uint32) *Ring {
	return &Ring{
		hdr:         hdr,
		slots:       slots,
		size:        queueSize,
		mask:        queueSize - 1,
		messageSize: messageSize,
		stride:      region.SlotStride(messageSize),
	}
}

func (r *Ring) slot(index uint32) []byte {
	off := uintptr(index&r.mask) * r.stride
	base := unsafe.Add(r.slots, off)
	return unsafe.Slice((*byte)(base), r.stride)
}

// Enqueue writes payload into the next free slot. It reports
// iox.ErrWouldBlock when the ring is full — the caller (Context.Send)
// interprets that as a drop-newest overflow, not a failure.
//
// Enqueue must only be called by the single producer.
func (r *Ring) Enqueue(payload []byte) error {
	if uint32(len(payload)) > r.messageSize {
		return fmt.Errorf("queue: payload of %d bytes exceeds message size %d: %w", len(payload), r.messageSize, ErrMessageTooLarge)
	}

	tail := r.hdr.Tail.Load()
	head := r.hdr.Head.Load()
	if tail-head >= r.size {
		return iox.ErrWouldBlock
	}

	s := r.slot(tail)
	binary.LittleEndian.PutUint32(s[:region.SlotHeaderSize], uint32(len(payload)))
	copy(s[region.SlotHeaderSize:], payload)

	r.hdr.Tail.Store(tail + 1)
	return nil
}

// Dequeue returns the next pending message as a slice aliasing mapped
// memory. It reports iox.ErrWouldBlock when the ring is empty.
//
// Dequeue must only be called by the single consumer. The returned slice
// is invalidated by the next call to Dequeue.
func (r *Ring) Dequeue() ([]byte, error) {
	head := r.hdr.Head.Load()
	tail := r.hdr.Tail.Load()
	if head == tail {
		return nil, iox.ErrWouldBlock
	}

	s := r.slot(head)
	n := binary.LittleEndian.Uint32(s[:region.SlotHeaderSize])
	if n > r.messageSize {
		n = r.messageSize
	}
	payload := s[region.SlotHeaderSize : region.SlotHeaderSize+n]

	r.hdr.Head.Store(head + 1)
	return payload, nil
}

// Len returns the number of messages currently queued. It is a snapshot;
// concurrent Enqueue/Dequeue calls may invalidate it immediately.
func (r *Ring) Len() uint32 {
	return r.hdr.Tail.Load() - r.hdr.Head.Load()
}

// Cap returns the ring's slot capacity.
func (r *Ring) Cap() uint32 { return r.size }
