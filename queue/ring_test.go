package queue_test

import (
	"bytes"
	"errors"
	"testing"
	"unsafe"

	"code.hybscloud.com/iox"

	"github.com/karlbohlmark/zipc/queue"
	"github.com/karlbohlmark/zipc/region"
)

func newTestRing(t *testing.T, queueSize, messageSize uint32) (*queue.Ring, *region.Header) {
	t.Helper()
	stride := region.SlotStride(messageSize)
	buf := make([]byte, region.HeaderSize+uintptr(queueSize)*stride)
	hdr := (*region.Header)(unsafe.Pointer(&buf[0]))
	slots := unsafe.Add(unsafe.Pointer(&buf[0]), region.HeaderSize)
	return queue.New(hdr, slots, queueSize, messageSize), hdr
}

func TestEnqueueDequeueOrdering(t *testing.T) {
	r, _ := newTestRing(t, 64, 1024)

	for _, msg := range []string{"hello\x00", "world\x00", "!\x00"} {
		if err := r.Enqueue([]byte(msg)); err != nil {
			t.Fatalf("Enqueue(%q): %v", msg, err)
		}
	}

	for _, want := range []string{"hello\x00", "world\x00", "!\x00"} {
		got, err := r.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if !bytes.Equal(got, []byte(want)) {
			t.Fatalf("Dequeue: got %q, want %q", got, want)
		}
	}

	if _, err := r.Dequeue(); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestOverflowDropsNewest(t *testing.T) {
	r, _ := newTestRing(t, 2, 8)

	if err := r.Enqueue([]byte("a")); err != nil {
		t.Fatalf("Enqueue 1: %v", err)
	}
	if err := r.Enqueue([]byte("b")); err != nil {
		t.Fatalf("Enqueue 2: %v", err)
	}
	if err := r.Enqueue([]byte("c")); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("Enqueue 3 (over capacity): got %v, want ErrWouldBlock", err)
	}

	first, err := r.Dequeue()
	if err != nil || string(first) != "a" {
		t.Fatalf("Dequeue 1: got %q, %v", first, err)
	}
	second, err := r.Dequeue()
	if err != nil || string(second) != "b" {
		t.Fatalf("Dequeue 2: got %q, %v", second, err)
	}
	if _, err := r.Dequeue(); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("Dequeue 3: got %v, want ErrWouldBlock", err)
	}
}

func TestMessageTooLarge(t *testing.T) {
	r, _ := newTestRing(t, 2, 4)

	if err := r.Enqueue([]byte("12345")); !errors.Is(err, queue.ErrMessageTooLarge) {
		t.Fatalf("Enqueue oversized payload: got %v, want ErrMessageTooLarge", err)
	}
}

func TestRoundTripFidelity(t *testing.T) {
	r, _ := newTestRing(t, 4, 16)
	payload := []byte("round-trip-data\x00")[:16]

	if err := r.Enqueue(payload); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	got, err := r.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip: got %q, want %q", got, payload)
	}
}

func TestEmptyFullSymmetry(t *testing.T) {
	r, _ := newTestRing(t, 8, 8)

	for i := 0; i < 3; i++ {
		if err := r.Enqueue([]byte("x")); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := r.Dequeue(); err != nil {
			t.Fatalf("Dequeue %d: %v", i, err)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("Len after symmetric drain: got %d, want 0", r.Len())
	}
	if _, err := r.Dequeue(); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("Dequeue after drain: got %v, want ErrWouldBlock", err)
	}
}
