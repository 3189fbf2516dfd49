package halfence

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpucmd"
	"github.com/gogpu/gpucmd/semaphore"
)

// object is the kernel state of one binary semaphore. It may be referenced
// by several handles once shared. The fence only tracks the lifetime of the
// kernel object; signal ordering comes from queue submission indexes.
type object struct {
	device hal.Device
	fence  hal.Fence

	mu      sync.Mutex
	refs    int
	pending []*point
}

func newObject(device hal.Device) (*object, error) {
	fence, err := device.CreateFence()
	if err != nil {
		return nil, err
	}
	return &object{device: device, fence: fence, refs: 1}, nil
}

func (o *object) push(p *point) {
	o.mu.Lock()
	o.pending = append(o.pending, p)
	o.mu.Unlock()
}

// consume takes the oldest signal if it has retired.
func (o *object) consume() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) == 0 || !o.pending[0].retired() {
		return false
	}
	o.pending[0] = nil
	o.pending = o.pending[1:]
	return true
}

func (o *object) snapshot(device hal.Device) (*object, error) {
	c, err := newObject(device)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	c.pending = append([]*point(nil), o.pending...)
	o.mu.Unlock()
	return c, nil
}

func (o *object) acquire() {
	o.mu.Lock()
	o.refs++
	o.mu.Unlock()
}

func (o *object) release() {
	o.mu.Lock()
	o.refs--
	last := o.refs == 0
	o.mu.Unlock()
	if last {
		o.device.DestroyFence(o.fence)
	}
}

// shared is the process-wide table of exported objects.
var shared = struct {
	sync.Mutex
	next    semaphore.SharedHandle
	objects map[semaphore.SharedHandle]*object
}{objects: make(map[semaphore.SharedHandle]*object)}

// Backend implements semaphore.Backend for one hal.Device.
type Backend struct {
	device hal.Device

	mu        sync.Mutex
	next      semaphore.Handle
	objects   map[semaphore.Handle]*object
	snapshots map[semaphore.Handle][]semaphore.SharedHandle
}

// New returns a backend creating objects on device.
func New(device hal.Device) *Backend {
	return &Backend{
		device:    device,
		objects:   make(map[semaphore.Handle]*object),
		snapshots: make(map[semaphore.Handle][]semaphore.SharedHandle),
	}
}

// Features reports binary-only objects without initial signal.
func (b *Backend) Features() semaphore.Features {
	return semaphore.Features{}
}

func (b *Backend) Create(mode semaphore.Mode, initial uint64) (semaphore.Handle, error) {
	if mode != semaphore.Binary {
		return 0, fmt.Errorf("halfence: %w: %v objects", semaphore.ErrUnsupported, mode)
	}
	if initial != 0 {
		return 0, fmt.Errorf("halfence: %w: signaled objects", semaphore.ErrUnsupported)
	}
	o, err := newObject(b.device)
	if err != nil {
		return 0, fmt.Errorf("halfence: create fence: %w", err)
	}
	return b.insert(o), nil
}

func (b *Backend) Destroy(h semaphore.Handle) error {
	b.mu.Lock()
	o, ok := b.objects[h]
	snapshots := b.snapshots[h]
	delete(b.objects, h)
	delete(b.snapshots, h)
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}

	// Snapshots nobody imported die with their exporter.
	shared.Lock()
	for _, s := range snapshots {
		if c, ok := shared.objects[s]; ok {
			delete(shared.objects, s)
			c.release()
		}
	}
	shared.Unlock()

	o.release()
	return nil
}

func (b *Backend) Signal(q gpucontext.Queue, h semaphore.Handle, _ uint64) error {
	hq, o, err := b.resolve(q, h)
	if err != nil {
		return err
	}
	p, err := hq.signalPoint()
	if err != nil {
		return fmt.Errorf("halfence: submit signal: %w", err)
	}
	o.push(p)
	return nil
}

func (b *Backend) Wait(q gpucontext.Queue, h semaphore.Handle, _ uint64) error {
	hq, o, err := b.resolve(q, h)
	if err != nil {
		return err
	}
	hq.addWait(o)
	return nil
}

func (b *Backend) QueryValue(semaphore.Handle) (uint64, error) {
	return 0, semaphore.ErrUnsupported
}

func (b *Backend) WaitValue(semaphore.Handle, uint64, time.Duration) error {
	return semaphore.ErrUnsupported
}

func (b *Backend) SignalValue(semaphore.Handle, uint64) error {
	return semaphore.ErrUnsupported
}

func (b *Backend) Export(h semaphore.Handle, asReference bool) (semaphore.SharedHandle, error) {
	o, err := b.lookup(h)
	if err != nil {
		return 0, err
	}
	if asReference {
		o.acquire()
	} else if o, err = o.snapshot(b.device); err != nil {
		return 0, fmt.Errorf("halfence: export: %w", err)
	}

	shared.Lock()
	shared.next++
	s := shared.next
	shared.objects[s] = o
	shared.Unlock()

	if !asReference {
		b.mu.Lock()
		b.snapshots[h] = append(b.snapshots[h], s)
		b.mu.Unlock()
	}
	return s, nil
}

func (b *Backend) Import(s semaphore.SharedHandle, asReference bool) (semaphore.Handle, semaphore.Mode, error) {
	shared.Lock()
	o, ok := shared.objects[s]
	delete(shared.objects, s)
	shared.Unlock()
	if !ok {
		return 0, 0, fmt.Errorf("%w: shared %d", ErrUnknownHandle, s)
	}

	if !asReference {
		c, err := o.snapshot(b.device)
		o.release()
		if err != nil {
			return 0, 0, fmt.Errorf("halfence: import: %w", err)
		}
		o = c
	}
	gpucmd.Logger().Debug("halfence: imported", "shared", uint64(s), "asReference", asReference)
	return b.insert(o), semaphore.Binary, nil
}

func (b *Backend) insert(o *object) semaphore.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.objects[b.next] = o
	return b.next
}

func (b *Backend) lookup(h semaphore.Handle) (*object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.objects[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return o, nil
}

func (b *Backend) resolve(q gpucontext.Queue, h semaphore.Handle) (*Queue, *object, error) {
	hq, ok := q.(*Queue)
	if !ok {
		return nil, nil, fmt.Errorf("halfence: %w: %T", semaphore.ErrWrongQueue, q)
	}
	o, err := b.lookup(h)
	if err != nil {
		return nil, nil, err
	}
	return hq, o, nil
}
