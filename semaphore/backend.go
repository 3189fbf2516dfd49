package semaphore

import (
	"time"

	"github.com/gogpu/gpucontext"
)

// Handle names a kernel synchronization object owned by a Backend.
type Handle uint64

// SharedHandle is an OS-level handle that carries a synchronization object
// across devices or processes.
type SharedHandle uintptr

// Features describe what a backend's kernel objects can do.
type Features struct {
	// Timeline is set when the backend supports timeline objects.
	Timeline bool

	// SignaledBinary is set when binary objects can be created signaled.
	SignaledBinary bool
}

// Backend is the kernel synchronization interface of one device. Every
// method except Features may block in the kernel; GPU-side Signal and Wait
// only enqueue work on q.
type Backend interface {
	Features() Features

	// Create makes a new object. initial is the signal count of a binary
	// object or the counter value of a timeline object.
	Create(mode Mode, initial uint64) (Handle, error)
	Destroy(h Handle) error

	Signal(q gpucontext.Queue, h Handle, value uint64) error
	Wait(q gpucontext.Queue, h Handle, value uint64) error

	// Timeline host operations. WaitValue returns ErrTimeout when timeout
	// expires first.
	QueryValue(h Handle) (uint64, error)
	WaitValue(h Handle, value uint64, timeout time.Duration) error
	SignalValue(h Handle, value uint64) error

	Export(h Handle, asReference bool) (SharedHandle, error)

	// Import takes ownership of s and returns a handle to the object it
	// carries together with the object's mode.
	Import(s SharedHandle, asReference bool) (Handle, Mode, error)
}
