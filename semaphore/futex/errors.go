//go:build linux

package futex

import "errors"

var (
	// ErrUnknownHandle is returned for handles the backend never issued.
	ErrUnknownHandle = errors.New("futex: unknown handle")

	// ErrBadPage is returned when an imported memfd does not hold a
	// semaphore page.
	ErrBadPage = errors.New("futex: not a semaphore page")

	// ErrQueueClosed is returned for work enqueued after Close.
	ErrQueueClosed = errors.New("futex: queue closed")
)
