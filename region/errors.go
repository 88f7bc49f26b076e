package region

import "errors"

// Sentinel errors for the create/attach/unlink failure modes of the
// shared-region protocol. Callers should use errors.Is against these,
// following the sentinel + fmt.Errorf(%w) convention used throughout this
// codebase's error handling.
var (
	// ErrNameInvalid is returned when a channel name is empty, does not
	// start with '/', or contains non-printable characters.
	ErrNameInvalid = errors.New("region: channel name invalid")

	// ErrNameTooLong is returned when a channel name exceeds the 39
	// character limit.
	ErrNameTooLong = errors.New("region: channel name too long")

	// ErrQueueSizeInvalid is returned when queueSize is not a power of
	// two, or is smaller than 2.
	ErrQueueSizeInvalid = errors.New("region: queue size must be a power of two >= 2")

	// ErrParamMismatch is returned when attaching to a region whose
	// on-disk size does not match the size computed from the caller's
	// queueSize and messageSize.
	ErrParamMismatch = errors.New("region: params do not match existing region")

	// ErrRegionTooSmall is returned when an existing region's file size
	// is smaller than the computed header size, so it cannot possibly
	// hold a valid layout.
	ErrRegionTooSmall = errors.New("region: existing region is smaller than a header")

	// ErrPermissionDenied is returned when opening the backing file fails
	// due to filesystem permissions, distinguishing it from a missing-file
	// or invalid-name failure.
	ErrPermissionDenied = errors.New("region: permission denied")
)
