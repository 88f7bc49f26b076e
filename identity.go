package zipc

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

var endpointClock = timecache.NewWithResolution(time.Millisecond)

var endpointSeq atomic.Uint64

// newEndpointID builds a log-correlation identifier combining the role,
// this process's pid, and a monotonically increasing sequence number
// stamped with a cached timestamp — cheap enough to call on every
// CreateSender/CreateReceiver without touching the syscall clock directly.
func newEndpointID(role Role) string {
	n := endpointSeq.Add(1)
	ts := endpointClock.CachedTime()
	roleName := "sender"
	if role == RoleReceiver {
		roleName = "receiver"
	}
	return fmt.Sprintf("%s-%d-%d-%d", roleName, os.Getpid(), ts.UnixMilli(), n)
}
