package zipc

import (
	"errors"

	"code.hybscloud.com/iox"

	"github.com/karlbohlmark/zipc/queue"
	"github.com/karlbohlmark/zipc/region"
	"github.com/karlbohlmark/zipc/wake"
)

// Re-exported sentinel errors. Callers should use errors.Is against these
// rather than comparing the underlying region/queue errors directly, so
// that the internal package split stays an implementation detail.
var (
	ErrNameInvalid      = region.ErrNameInvalid
	ErrNameTooLong      = region.ErrNameTooLong
	ErrQueueSizeInvalid = region.ErrQueueSizeInvalid
	ErrParamMismatch    = region.ErrParamMismatch
	ErrPermissionDenied = region.ErrPermissionDenied
	ErrMessageTooLarge  = queue.ErrMessageTooLarge

	// ErrTimeout is the wake primitive's timeout signal. ReceiveBlocking
	// does not return it: a ReceiveBlocking call that times out reports
	// (nil, 0, nil).
	ErrTimeout = wake.ErrTimeout

	// ErrTimeoutTooLarge is returned by ReceiveBlocking when the caller
	// passes a timeout of 1 second or more; the protocol requires sub-
	// second blocking windows.
	ErrTimeoutTooLarge = errors.New("zipc: receive_blocking timeout must be < 1000ms")
)

// IsWouldBlock reports whether err is the control-flow signal for an empty
// or full queue, as opposed to a genuine failure.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
