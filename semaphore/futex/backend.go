//go:build linux

package futex

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"golang.org/x/sys/unix"

	"github.com/gogpu/gpucmd"
	"github.com/gogpu/gpucmd/semaphore"
)

// unimported holds the snapshot memfds exported from this process that no
// Import has taken yet.
var unimported = struct {
	sync.Mutex
	fds map[int]struct{}
}{fds: make(map[int]struct{})}

// Backend implements semaphore.Backend with memfd pages.
type Backend struct {
	mu        sync.Mutex
	next      semaphore.Handle
	pages     map[semaphore.Handle]*page
	snapshots map[semaphore.Handle][]int
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		pages:     make(map[semaphore.Handle]*page),
		snapshots: make(map[semaphore.Handle][]int),
	}
}

// Features reports timeline support and signaled binary objects.
func (b *Backend) Features() semaphore.Features {
	return semaphore.Features{Timeline: true, SignaledBinary: true}
}

func (b *Backend) Create(mode semaphore.Mode, initial uint64) (semaphore.Handle, error) {
	p, err := newPage(mode, initial)
	if err != nil {
		return 0, err
	}
	return b.insert(p), nil
}

func (b *Backend) Destroy(h semaphore.Handle) error {
	b.mu.Lock()
	p, ok := b.pages[h]
	snapshots := b.snapshots[h]
	delete(b.pages, h)
	delete(b.snapshots, h)
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}

	unimported.Lock()
	for _, fd := range snapshots {
		if _, ok := unimported.fds[fd]; ok {
			delete(unimported.fds, fd)
			unix.Close(fd)
		}
	}
	unimported.Unlock()

	if err := p.release(); err != nil {
		return fmt.Errorf("futex: release: %w", err)
	}
	return nil
}

func (b *Backend) Signal(q gpucontext.Queue, h semaphore.Handle, value uint64) error {
	return b.enqueue(q, h, func(p *page) {
		p.signal(value)
	})
}

func (b *Backend) Wait(q gpucontext.Queue, h semaphore.Handle, value uint64) error {
	return b.enqueue(q, h, func(p *page) {
		if err := p.wait(value, noDeadline); err != nil {
			gpucmd.Logger().Warn("futex: queue wait failed", "handle", uint64(h), "err", err)
		}
	})
}

// enqueue runs op on q's worker with a reference to the page held until
// op returns, so Destroy cannot unmap it underneath.
func (b *Backend) enqueue(q gpucontext.Queue, h semaphore.Handle, op func(*page)) error {
	fq, ok := q.(*Queue)
	if !ok {
		return fmt.Errorf("futex: %w: %T", semaphore.ErrWrongQueue, q)
	}
	p, err := b.lookup(h)
	if err != nil {
		return err
	}
	p.acquire()
	err = fq.Submit(func() {
		op(p)
		p.release()
	})
	if err != nil {
		p.release()
	}
	return err
}

func (b *Backend) QueryValue(h semaphore.Handle) (uint64, error) {
	p, err := b.lookup(h)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint64(p.value()), nil
}

func (b *Backend) WaitValue(h semaphore.Handle, value uint64, timeout time.Duration) error {
	p, err := b.lookup(h)
	if err != nil {
		return err
	}
	return p.wait(value, max(timeout, 0))
}

func (b *Backend) SignalValue(h semaphore.Handle, value uint64) error {
	p, err := b.lookup(h)
	if err != nil {
		return err
	}
	p.signal(value)
	return nil
}

func (b *Backend) Export(h semaphore.Handle, asReference bool) (semaphore.SharedHandle, error) {
	p, err := b.lookup(h)
	if err != nil {
		return 0, err
	}
	if asReference {
		fd, err := unix.Dup(p.fd)
		if err != nil {
			return 0, fmt.Errorf("futex: dup: %w", err)
		}
		return semaphore.SharedHandle(fd), nil
	}

	c, err := newPage(p.mode(), atomic.LoadUint64(p.value()))
	if err != nil {
		return 0, err
	}
	if err := unix.Munmap(c.mem); err != nil {
		unix.Close(c.fd)
		return 0, fmt.Errorf("futex: munmap: %w", err)
	}

	unimported.Lock()
	unimported.fds[c.fd] = struct{}{}
	unimported.Unlock()
	b.mu.Lock()
	b.snapshots[h] = append(b.snapshots[h], c.fd)
	b.mu.Unlock()
	return semaphore.SharedHandle(c.fd), nil
}

func (b *Backend) Import(s semaphore.SharedHandle, asReference bool) (semaphore.Handle, semaphore.Mode, error) {
	fd := int(s)
	unimported.Lock()
	delete(unimported.fds, fd)
	unimported.Unlock()

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return 0, 0, fmt.Errorf("futex: fstat: %w", err)
	}
	if st.Size < pageSize {
		unix.Close(fd)
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrBadPage, st.Size)
	}
	p, err := mapPage(fd)
	if err != nil {
		unix.Close(fd)
		return 0, 0, err
	}
	if !p.valid() {
		p.release()
		return 0, 0, ErrBadPage
	}

	mode := p.mode()
	if !asReference {
		c, err := newPage(mode, atomic.LoadUint64(p.value()))
		p.release()
		if err != nil {
			return 0, 0, err
		}
		p = c
	}
	gpucmd.Logger().Debug("futex: imported", "mode", mode.String(), "asReference", asReference)
	return b.insert(p), mode, nil
}

func (b *Backend) insert(p *page) semaphore.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.pages[b.next] = p
	return b.next
}

func (b *Backend) lookup(h semaphore.Handle) (*page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pages[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return p, nil
}
