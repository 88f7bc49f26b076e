package queue

import "errors"

// ErrMessageTooLarge is returned by Enqueue when a payload exceeds the
// ring's fixed message size.
var ErrMessageTooLarge = errors.New("queue: message exceeds configured message size")
