//go:build linux

package futex

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gogpu/gpucmd/semaphore"
)

// Page layout.
const (
	pageSize   = 4096
	valueOff   = 0  // uint64 counter
	seqOff     = 8  // uint32 futex word, bumped on every signal
	modeOff    = 12 // uint32 semaphore.Mode
	magicOff   = 16 // uint32 pageMagic
	pageMagic  = 0x53454D41
	memfdName  = "gpucmd-semaphore"
	futexWait  = 0 // FUTEX_WAIT
	futexWake  = 1 // FUTEX_WAKE
	wakeAll    = math.MaxInt32
	noDeadline = time.Duration(-1)
)

// page is one mapped semaphore object.
type page struct {
	fd   int
	mem  []byte
	refs atomic.Int32
}

func newPage(mode semaphore.Mode, initial uint64) (*page, error) {
	fd, err := unix.MemfdCreate(memfdName, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("futex: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, pageSize); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("futex: ftruncate: %w", err)
	}
	p, err := mapPage(fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	atomic.StoreUint64(p.value(), initial)
	atomic.StoreUint32(p.word(modeOff), uint32(mode))
	atomic.StoreUint32(p.word(magicOff), pageMagic)
	return p, nil
}

// mapPage maps fd and takes ownership of it.
func mapPage(fd int) (*page, error) {
	mem, err := unix.Mmap(fd, 0, pageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("futex: mmap: %w", err)
	}
	p := &page{fd: fd, mem: mem}
	p.refs.Store(1)
	return p, nil
}

func (p *page) value() *uint64 {
	return (*uint64)(unsafe.Pointer(&p.mem[valueOff]))
}

func (p *page) word(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&p.mem[off]))
}

func (p *page) mode() semaphore.Mode {
	return semaphore.Mode(atomic.LoadUint32(p.word(modeOff)))
}

func (p *page) valid() bool {
	return atomic.LoadUint32(p.word(magicOff)) == pageMagic
}

func (p *page) acquire() { p.refs.Add(1) }

func (p *page) release() error {
	if p.refs.Add(-1) > 0 {
		return nil
	}
	err := unix.Munmap(p.mem)
	if cerr := unix.Close(p.fd); err == nil {
		err = cerr
	}
	return err
}

// signal raises a timeline to value, or adds one binary signal, and wakes
// every waiter.
func (p *page) signal(value uint64) {
	v := p.value()
	if p.mode() == semaphore.Timeline {
		for {
			cur := atomic.LoadUint64(v)
			if cur >= value || atomic.CompareAndSwapUint64(v, cur, value) {
				break
			}
		}
	} else {
		atomic.AddUint64(v, 1)
	}
	atomic.AddUint32(p.word(seqOff), 1)
	p.wake()
}

// wait blocks until a timeline reaches value, or consumes one binary
// signal. A negative timeout waits forever.
func (p *page) wait(value uint64, timeout time.Duration) error {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		seq := atomic.LoadUint32(p.word(seqOff))
		if p.try(value) {
			return nil
		}

		remaining := noDeadline
		if timeout >= 0 {
			if remaining = time.Until(deadline); remaining <= 0 {
				return semaphore.ErrTimeout
			}
		}
		if err := p.sleep(seq, remaining); err != nil {
			return err
		}
	}
}

func (p *page) try(value uint64) bool {
	v := p.value()
	if p.mode() == semaphore.Timeline {
		return atomic.LoadUint64(v) >= value
	}
	for {
		cur := atomic.LoadUint64(v)
		if cur == 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(v, cur, cur-1) {
			return true
		}
	}
}

// sleep waits on the sequence word while it still holds seq.
func (p *page) sleep(seq uint32, timeout time.Duration) error {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(p.word(seqOff))), futexWait, uintptr(seq),
		uintptr(unsafe.Pointer(ts)), 0, 0)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR, unix.ETIMEDOUT:
		// Re-checked by the caller.
		return nil
	default:
		return fmt.Errorf("futex: wait: %w", errno)
	}
}

func (p *page) wake() {
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(p.word(seqOff))), futexWake, wakeAll,
		0, 0, 0)
}
