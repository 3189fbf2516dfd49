package semaphore

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/gpucmd"
)

// Mode selects the semaphore variant.
type Mode uint8

const (
	// Binary semaphores count signals; each wait consumes one.
	Binary Mode = iota
	// Timeline semaphores carry a monotonically increasing 64-bit value.
	Timeline
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Binary:
		return "Binary"
	case Timeline:
		return "Timeline"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// CreateInfo describes a new semaphore.
type CreateInfo struct {
	Mode Mode

	// InitialCount is the initial signal count of a binary semaphore or the
	// initial value of a timeline semaphore.
	InitialCount uint64

	// MaxCount bounds the outstanding waits one signal can satisfy. It must
	// be at least 1.
	MaxCount uint32

	// Shareable allows the semaphore to be exported.
	Shareable bool
}

// OpenInfo describes a semaphore opened from a shared handle.
type OpenInfo struct {
	Handle      SharedHandle
	AsReference bool

	// CrossAdapter is set when the handle was exported by another adapter.
	CrossAdapter bool

	// MaxCount defaults to 1.
	MaxCount uint32
}

// Semaphore orders work across queues. It is not safe for concurrent use;
// callers serialize access the way they serialize queue submission.
type Semaphore struct {
	backend   Backend
	handle    Handle
	mode      Mode
	maxCount  uint32
	shareable bool
	shared    bool
	destroyed bool

	// skipNextWait emulates an initially signaled binary semaphore on
	// backends that cannot create one.
	skipNextWait bool

	// lastValue is the last value signaled through this handle.
	lastValue uint64
}

// New creates a semaphore on backend.
func New(backend Backend, info CreateInfo) (*Semaphore, error) {
	if info.MaxCount < 1 {
		return nil, fmt.Errorf("%w: max count %d", ErrInvalidValue, info.MaxCount)
	}

	features := backend.Features()
	s := &Semaphore{
		backend:   backend,
		mode:      info.Mode,
		maxCount:  info.MaxCount,
		shareable: info.Shareable,
	}

	initial := info.InitialCount
	switch info.Mode {
	case Binary:
		if initial > uint64(info.MaxCount) {
			return nil, fmt.Errorf("%w: initial count %d exceeds max count %d",
				ErrInvalidValue, initial, info.MaxCount)
		}
		if initial > 0 && !features.SignaledBinary {
			s.skipNextWait = true
			initial = 0
		}
	case Timeline:
		if !features.Timeline {
			return nil, fmt.Errorf("%w: timeline semaphores", ErrUnsupported)
		}
		s.lastValue = initial
	default:
		return nil, fmt.Errorf("%w: mode %v", ErrInvalidValue, info.Mode)
	}

	h, err := backend.Create(info.Mode, initial)
	if err != nil {
		return nil, fmt.Errorf("semaphore: create: %w", err)
	}
	s.handle = h

	gpucmd.Logger().Debug("semaphore: created",
		"mode", info.Mode.String(),
		"initial", info.InitialCount,
		"maxCount", info.MaxCount,
		"skipNextWait", s.skipNextWait)
	return s, nil
}

// Open creates a semaphore from a handle exported by Export, possibly in
// another process.
func Open(backend Backend, info OpenInfo) (*Semaphore, error) {
	if info.CrossAdapter {
		return nil, fmt.Errorf("%w: cross-adapter open", ErrNotImplemented)
	}

	h, mode, err := backend.Import(info.Handle, info.AsReference)
	if err != nil {
		return nil, fmt.Errorf("semaphore: open: %w", err)
	}
	s := &Semaphore{
		backend:   backend,
		handle:    h,
		mode:      mode,
		maxCount:  max(info.MaxCount, 1),
		shareable: true,
		shared:    true,
	}
	if mode == Timeline {
		if s.lastValue, err = backend.QueryValue(h); err != nil {
			s.release()
			return nil, fmt.Errorf("semaphore: open: %w", err)
		}
	}

	gpucmd.Logger().Debug("semaphore: opened",
		"mode", mode.String(),
		"asReference", info.AsReference)
	return s, nil
}

// Mode returns the semaphore variant.
func (s *Semaphore) Mode() Mode { return s.mode }

// MaxCount returns the number of waits one signal can satisfy.
func (s *Semaphore) MaxCount() uint32 { return s.maxCount }

// IsShared reports whether the semaphore was opened from a shared handle.
func (s *Semaphore) IsShared() bool { return s.shared }

// Signal enqueues a signal on q. For timeline semaphores value must exceed
// the last signaled value; binary semaphores ignore it.
func (s *Semaphore) Signal(q gpucontext.Queue, value uint64) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if s.mode == Timeline && value <= s.lastValue {
		return fmt.Errorf("%w: %d after %d", ErrValueNotIncreasing, value, s.lastValue)
	}
	if err := s.backend.Signal(q, s.handle, value); err != nil {
		return fmt.Errorf("semaphore: signal: %w", err)
	}
	if s.mode == Timeline {
		s.lastValue = value
	}
	return nil
}

// Wait enqueues a wait on q. Work submitted to q afterwards does not start
// until the semaphore is signaled, or for timelines reaches value.
func (s *Semaphore) Wait(q gpucontext.Queue, value uint64) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if s.skipNextWait {
		s.skipNextWait = false
		return nil
	}
	if err := s.backend.Wait(q, s.handle, value); err != nil {
		return fmt.Errorf("semaphore: wait: %w", err)
	}
	return nil
}

// QueryValue returns the current timeline value.
func (s *Semaphore) QueryValue() (uint64, error) {
	if err := s.checkTimeline(); err != nil {
		return 0, err
	}
	v, err := s.backend.QueryValue(s.handle)
	if err != nil {
		return 0, fmt.Errorf("semaphore: query: %w", err)
	}
	return v, nil
}

// WaitValue blocks until the timeline reaches value or timeout expires, in
// which case it returns ErrTimeout.
func (s *Semaphore) WaitValue(value uint64, timeout time.Duration) error {
	if err := s.checkTimeline(); err != nil {
		return err
	}
	if err := s.backend.WaitValue(s.handle, value, timeout); err != nil {
		return fmt.Errorf("semaphore: wait value %d: %w", value, err)
	}
	return nil
}

// SignalValue sets the timeline to value from the host.
func (s *Semaphore) SignalValue(value uint64) error {
	if err := s.checkTimeline(); err != nil {
		return err
	}
	if value <= s.lastValue {
		return fmt.Errorf("%w: %d after %d", ErrValueNotIncreasing, value, s.lastValue)
	}
	if err := s.backend.SignalValue(s.handle, value); err != nil {
		return fmt.Errorf("semaphore: signal value %d: %w", value, err)
	}
	s.lastValue = value
	return nil
}

// Export returns a shareable handle to the semaphore. With asReference the
// holder of the handle observes this semaphore's live state; otherwise it
// receives a copy of the current state.
func (s *Semaphore) Export(asReference bool) (SharedHandle, error) {
	if s.destroyed {
		return 0, ErrDestroyed
	}
	if !s.shareable {
		return 0, fmt.Errorf("%w: semaphore not created shareable", ErrUnsupported)
	}
	h, err := s.backend.Export(s.handle, asReference)
	if err != nil {
		return 0, fmt.Errorf("semaphore: export: %w", err)
	}
	return h, nil
}

// Destroy releases the kernel object. It must be called exactly once.
func (s *Semaphore) Destroy() error {
	if s.destroyed {
		return ErrDestroyed
	}
	return s.release()
}

func (s *Semaphore) release() error {
	s.destroyed = true
	if err := s.backend.Destroy(s.handle); err != nil {
		gpucmd.Logger().Warn("semaphore: release failed", "handle", uint64(s.handle), "err", err)
		return fmt.Errorf("semaphore: destroy: %w", err)
	}
	return nil
}

func (s *Semaphore) checkTimeline() error {
	if s.destroyed {
		return ErrDestroyed
	}
	if s.mode != Timeline {
		return ErrWrongObjectType
	}
	return nil
}
