package region

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/spin"
)

// Region is a mapped shared-memory region backing one ZIPC channel.
//
// A Region is bound to exactly one process; it must not be shared across
// a fork without re-attaching. Close unmaps and closes the backing file
// descriptor but leaves the namespace entry in place — use Unlink to
// remove the entry itself.
type Region struct {
	name        string
	path        string
	fd          int
	data        []byte
	queueSize   uint32
	messageSize uint32
}

// Header returns a pointer to the region's control-block header. The
// pointer is valid for the lifetime of the Region.
func (r *Region) Header() *Header {
	return (*Header)(unsafe.Pointer(&r.data[0]))
}

// Slots returns the base address of the slot array.
func (r *Region) Slots() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(&r.data[0]), HeaderSize)
}

// QueueSize returns the number of slots in the ring.
func (r *Region) QueueSize() uint32 { return r.queueSize }

// MessageSize returns the maximum payload bytes per slot.
func (r *Region) MessageSize() uint32 { return r.messageSize }

// Name returns the channel name the Region was opened with.
func (r *Region) Name() string { return r.name }

// Path returns the filesystem path backing the region.
func (r *Region) Path() string { return r.path }

func regionSize(queueSize, messageSize uint32) (int64, error) {
	if queueSize < 2 || queueSize&(queueSize-1) != 0 {
		return 0, ErrQueueSizeInvalid
	}
	total := uint64(HeaderSize) + uint64(queueSize)*uint64(SlotStride(messageSize))
	page := uint64(unix.Getpagesize())
	rounded := (total + page - 1) / page * page
	return int64(rounded), nil
}

// Create opens or creates the named region (the Sender path).
//
// If the region is freshly created, its control block is zeroed and
// InitFlag is published with a release store. If the region already
// existed, its size is validated against the caller's params; a second
// Sender attaching to an already-initialized region is treated as a
// re-attach and its initialization step is skipped.
func Create(name string, queueSize, messageSize uint32) (*Region, error) {
	size, err := regionSize(queueSize, messageSize)
	if err != nil {
		return nil, err
	}
	path, err := ShmPath(name)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, classifyOpenErr(err))
	}

	created, err := sizeAndCheck(fd, path, size)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	r, err := mapRegion(fd, path, name, size, queueSize, messageSize)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	if created {
		hdr := r.Header()
		hdr.Head.Store(0)
		hdr.Tail.Store(0)
		clearSlots(r)
		hdr.InitFlag.Store(1)
	}

	return r, nil
}

// Attach opens an existing region (the Receiver path) without truncating
// it, and without publishing InitFlag — that remains the creating Sender's
// sole responsibility. Use WaitForInitialization if the region may not yet
// be published.
func Attach(name string, queueSize, messageSize uint32) (*Region, error) {
	size, err := regionSize(queueSize, messageSize)
	if err != nil {
		return nil, err
	}
	path, err := ShmPath(name)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, classifyOpenErr(err))
	}

	if err := attachSizeCheck(fd, path, size); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return mapRegion(fd, path, name, size, queueSize, messageSize)
}

// sizeAndCheck ensures the open file is at least `size` bytes, truncating
// it up from zero (a freshly created file) and reporting whether this call
// performed that initial sizing. An existing, already-sized file whose
// length disagrees with `size` is a ParamMismatch.
func sizeAndCheck(fd int, path string, size int64) (created bool, err error) {
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return false, fmt.Errorf("region: fstat %s: %w", path, err)
	}

	if stat.Size == 0 {
		if err := unix.Ftruncate(fd, size); err != nil {
			return false, fmt.Errorf("region: truncate %s: %w", path, err)
		}
		return true, nil
	}

	if stat.Size < HeaderSize {
		return false, fmt.Errorf("region: %s is %d bytes: %w", path, stat.Size, ErrRegionTooSmall)
	}
	if stat.Size != size {
		return false, fmt.Errorf("region: %s is %d bytes, want %d: %w", path, stat.Size, size, ErrParamMismatch)
	}
	return false, nil
}

// attachSizeCheck validates an existing file's size for the Attach path.
// Unlike sizeAndCheck, it never truncates: a zero-length file means the
// creating Sender has opened the path but not yet sized it, which Attach
// reports as ENOENT so callers polling via WaitForInitialization keep
// retrying instead of racing the Sender's own truncate-then-initialize
// sequence.
func attachSizeCheck(fd int, path string, size int64) error {
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return fmt.Errorf("region: fstat %s: %w", path, err)
	}
	if stat.Size == 0 {
		return fmt.Errorf("region: %s not yet sized: %w", path, unix.ENOENT)
	}
	if stat.Size < HeaderSize {
		return fmt.Errorf("region: %s is %d bytes: %w", path, stat.Size, ErrRegionTooSmall)
	}
	if stat.Size != size {
		return fmt.Errorf("region: %s is %d bytes, want %d: %w", path, stat.Size, size, ErrParamMismatch)
	}
	return nil
}

func mapRegion(fd int, path, name string, size int64, queueSize, messageSize uint32) (*Region, error) {
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %s: %w", path, err)
	}
	return &Region{
		name:        name,
		path:        path,
		fd:          fd,
		data:        data,
		queueSize:   queueSize,
		messageSize: messageSize,
	}, nil
}

func clearSlots(r *Region) {
	slotsStart := HeaderSize
	for i := slotsStart; i < len(r.data); i++ {
		r.data[i] = 0
	}
}

func classifyOpenErr(err error) error {
	switch err {
	case unix.EACCES, unix.EPERM:
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return err
	}
}

// Close unmaps the region and closes its file descriptor. It does not
// remove the region from the namespace; use Unlink for that.
func (r *Region) Close() error {
	munErr := unix.Munmap(r.data)
	closeErr := unix.Close(r.fd)
	if munErr != nil {
		return fmt.Errorf("region: munmap %s: %w", r.path, munErr)
	}
	if closeErr != nil {
		return fmt.Errorf("region: close %s: %w", r.path, closeErr)
	}
	return nil
}

// Unlink removes a channel's region from the shared-memory namespace.
// Existing mappings remain valid until their processes unmap; new Attach
// calls by the same name fail until a Create recreates it.
// Unlinking a non-existent region is a no-op, matching the idempotent-
// unlink property required of this protocol.
func Unlink(name string) error {
	path, err := ShmPath(name)
	if err != nil {
		return err
	}
	if err := unix.Unlink(path); err != nil && err != unix.ENOENT {
		return fmt.Errorf("region: unlink %s: %w", path, err)
	}
	return nil
}

// WaitForInitialization blocks, using a bounded exponential polling
// backoff, until the region's InitFlag transitions to 1. It is the
// mechanism by which a Receiver started before any Sender exists can
// safely wait for the layout to be published instead of racing it.
func WaitForInitialization(h *Header) {
	sw := spin.Wait{}
	for h.InitFlag.Load() == 0 {
		sw.Once()
	}
}
