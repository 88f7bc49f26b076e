//go:build linux

package wake

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// futexWaiter backs Waiter with the raw Linux futex(2) syscall. The
// FUTEX_WAIT/FUTEX_WAKE operations used here are the non-private variants:
// FUTEX_PRIVATE_FLAG assumes the futex word is process-private virtual
// memory, which does not hold across two mmap'd processes sharing one
// region.
type futexWaiter struct{}

func newDefault() Waiter { return futexWaiter{} }

const (
	futexWait = 0
	futexWake = 1
)

func (futexWaiter) Wait(addr *uint32, expect uint32, timeout time.Duration) error {
	var ts *unix.Timespec
	if timeout > 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWait),
		uintptr(expect),
		uintptr(unsafe.Pointer(ts)),
		0, 0,
	)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	case unix.ETIMEDOUT:
		return ErrTimeout
	default:
		return errno
	}
}

func (futexWaiter) Wake(addr *uint32) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWake),
		uintptr(1<<31-1), // wake every waiter; there is at most one in SPSC use
		0, 0, 0,
	)
	if errno != 0 {
		return errno
	}
	return nil
}
