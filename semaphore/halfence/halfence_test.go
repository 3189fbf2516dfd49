package halfence

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpucmd/semaphore"
)

// retireQueue completes submissions only when told to.
type retireQueue struct {
	hal.Queue
	completed atomic.Uint64
}

func (q *retireQueue) PollCompleted() uint64 { return q.completed.Load() }

// countingDevice counts destroyed fences.
type countingDevice struct {
	hal.Device
	destroyed atomic.Int32
}

func (d *countingDevice) DestroyFence(f hal.Fence) {
	d.destroyed.Add(1)
	d.Device.DestroyFence(f)
}

type rig struct {
	device   *countingDevice
	producer *Queue
	retire   *retireQueue
	consumer *Queue
}

func newRig(t *testing.T) *rig {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		open.Device.Destroy()
		instance.Destroy()
	})

	retire := &retireQueue{Queue: open.Queue}
	return &rig{
		device:   &countingDevice{Device: open.Device},
		producer: NewQueue(retire),
		retire:   retire,
		consumer: NewQueue(&noop.Queue{}),
	}
}

func mustSemaphore(t *testing.T, b semaphore.Backend, info semaphore.CreateInfo) *semaphore.Semaphore {
	t.Helper()
	if info.MaxCount == 0 {
		info.MaxCount = 1
	}
	s, err := semaphore.New(b, info)
	if err != nil {
		t.Fatalf("semaphore.New error = %v", err)
	}
	return s
}

func TestWaitGatesSubmitUntilSignalRetires(t *testing.T) {
	r := newRig(t)
	s := mustSemaphore(t, New(r.device), semaphore.CreateInfo{})

	if err := s.Wait(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := r.consumer.Submit(nil); !errors.Is(err, hal.ErrNotReady) {
		t.Fatalf("Submit before signal error = %v, want hal.ErrNotReady", err)
	}

	if err := s.Signal(r.producer, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := r.consumer.Submit(nil); !errors.Is(err, hal.ErrNotReady) {
		t.Fatalf("Submit before retire error = %v, want hal.ErrNotReady", err)
	}

	r.retire.completed.Store(1)
	if _, err := r.consumer.Submit(nil); err != nil {
		t.Fatalf("Submit after retire error = %v", err)
	}
	if n := r.consumer.PendingWaits(); n != 0 {
		t.Errorf("PendingWaits = %d, want 0", n)
	}
}

func TestEachWaitConsumesOneSignal(t *testing.T) {
	r := newRig(t)
	s := mustSemaphore(t, New(r.device), semaphore.CreateInfo{MaxCount: 2})
	r.retire.completed.Store(100)

	for range 2 {
		if err := s.Signal(r.producer, 0); err != nil {
			t.Fatal(err)
		}
	}
	for range 3 {
		if err := s.Wait(r.consumer, 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.consumer.Submit(nil); !errors.Is(err, hal.ErrNotReady) {
		t.Fatalf("third wait satisfied without a signal: %v", err)
	}
	if n := r.consumer.PendingWaits(); n != 1 {
		t.Errorf("PendingWaits = %d, want 1", n)
	}
}

func TestWaitThenSignalOnOneQueue(t *testing.T) {
	r := newRig(t)
	b := New(r.device)
	a := mustSemaphore(t, b, semaphore.CreateInfo{})
	c := mustSemaphore(t, b, semaphore.CreateInfo{})

	if err := a.Wait(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Signal(r.consumer, 0); err != nil {
		t.Fatalf("Signal behind a pending wait error = %v", err)
	}
	if n := r.consumer.PendingWaits(); n != 1 {
		t.Errorf("PendingWaits = %d, want 1", n)
	}

	if err := a.Signal(r.producer, 0); err != nil {
		t.Fatal(err)
	}
	r.retire.completed.Store(1)
	if _, err := r.consumer.Submit(nil); err != nil {
		t.Fatalf("Submit after retire error = %v", err)
	}

	// The deferred signal went out with that Submit.
	if err := c.Wait(r.producer, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.producer.Flush(); err != nil {
		t.Errorf("wait on the deferred signal error = %v", err)
	}
}

func TestSignalChainAcrossQueues(t *testing.T) {
	r := newRig(t)
	b := New(r.device)
	first := mustSemaphore(t, b, semaphore.CreateInfo{})
	second := mustSemaphore(t, b, semaphore.CreateInfo{})
	last := NewQueue(&noop.Queue{})

	// consumer waits on first and then signals second; last waits on second.
	if err := first.Wait(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if err := second.Signal(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if err := second.Wait(last, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := last.Submit(nil); !errors.Is(err, hal.ErrNotReady) {
		t.Fatalf("Submit before the chain started error = %v, want hal.ErrNotReady", err)
	}

	if err := first.Signal(r.producer, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.consumer.Flush(); !errors.Is(err, hal.ErrNotReady) {
		t.Fatalf("Flush before retire error = %v, want hal.ErrNotReady", err)
	}
	if _, err := last.Submit(nil); !errors.Is(err, hal.ErrNotReady) {
		t.Fatalf("Submit ran ahead of the middle queue: %v", err)
	}

	r.retire.completed.Store(1)
	if err := r.consumer.Flush(); err != nil {
		t.Fatalf("Flush after retire error = %v", err)
	}
	if _, err := last.Submit(nil); err != nil {
		t.Errorf("Submit at the end of the chain error = %v", err)
	}
	if n := r.consumer.PendingWaits() + last.PendingWaits(); n != 0 {
		t.Errorf("PendingWaits = %d, want 0", n)
	}
}

func TestInitialCountIsEmulated(t *testing.T) {
	r := newRig(t)
	s := mustSemaphore(t, New(r.device), semaphore.CreateInfo{InitialCount: 1})

	if err := s.Wait(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if n := r.consumer.PendingWaits(); n != 0 {
		t.Errorf("emulated signaled semaphore queued %d waits", n)
	}
	if err := s.Wait(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if n := r.consumer.PendingWaits(); n != 1 {
		t.Errorf("second wait queued %d waits, want 1", n)
	}
}

func TestUnsupportedRequests(t *testing.T) {
	r := newRig(t)
	b := New(r.device)

	if _, err := semaphore.New(b, semaphore.CreateInfo{Mode: semaphore.Timeline, MaxCount: 1}); !errors.Is(err, semaphore.ErrUnsupported) {
		t.Errorf("timeline create error = %v, want ErrUnsupported", err)
	}
	if _, err := b.Create(semaphore.Binary, 1); !errors.Is(err, semaphore.ErrUnsupported) {
		t.Errorf("signaled create error = %v, want ErrUnsupported", err)
	}

	s := mustSemaphore(t, b, semaphore.CreateInfo{})
	if err := s.Signal(&noop.Queue{}, 0); !errors.Is(err, semaphore.ErrWrongQueue) {
		t.Errorf("Signal on a raw hal queue error = %v, want ErrWrongQueue", err)
	}
}

func TestExportByReferenceSharesState(t *testing.T) {
	r := newRig(t)
	a := mustSemaphore(t, New(r.device), semaphore.CreateInfo{Shareable: true})

	h, err := a.Export(true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := semaphore.Open(New(r.device), semaphore.OpenInfo{Handle: h, AsReference: true})
	if err != nil {
		t.Fatal(err)
	}
	if !b.IsShared() || b.Mode() != semaphore.Binary {
		t.Errorf("opened: shared=%v mode=%v", b.IsShared(), b.Mode())
	}

	if err := b.Wait(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if err := a.Signal(r.producer, 0); err != nil {
		t.Fatal(err)
	}
	r.retire.completed.Store(1)
	if _, err := r.consumer.Submit(nil); err != nil {
		t.Errorf("signal through the original did not reach the reference: %v", err)
	}

	if err := a.Destroy(); err != nil {
		t.Fatal(err)
	}
	if got := r.device.destroyed.Load(); got != 0 {
		t.Errorf("fence destroyed while still referenced (%d)", got)
	}
	if err := b.Destroy(); err != nil {
		t.Fatal(err)
	}
	if got := r.device.destroyed.Load(); got != 1 {
		t.Errorf("destroyed fences = %d, want 1", got)
	}
}

func TestExportSnapshotIsIndependent(t *testing.T) {
	r := newRig(t)
	a := mustSemaphore(t, New(r.device), semaphore.CreateInfo{Shareable: true})

	h, err := a.Export(false)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Signal(r.producer, 0); err != nil {
		t.Fatal(err)
	}
	r.retire.completed.Store(1)

	b, err := semaphore.Open(New(r.device), semaphore.OpenInfo{Handle: h})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Wait(r.consumer, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := r.consumer.Submit(nil); !errors.Is(err, hal.ErrNotReady) {
		t.Errorf("snapshot observed a later signal: %v", err)
	}
}

func TestDestroyReleasesUnimportedSnapshot(t *testing.T) {
	r := newRig(t)
	b := New(r.device)
	a := mustSemaphore(t, b, semaphore.CreateInfo{Shareable: true})

	h, err := a.Export(false)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Destroy(); err != nil {
		t.Fatal(err)
	}
	if got := r.device.destroyed.Load(); got != 2 {
		t.Errorf("destroyed fences = %d, want 2", got)
	}
	if _, err := semaphore.Open(b, semaphore.OpenInfo{Handle: h}); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Open after exporter destroyed error = %v, want ErrUnknownHandle", err)
	}
}

func TestDestroyKeepsImportedSnapshot(t *testing.T) {
	r := newRig(t)
	b := New(r.device)
	a := mustSemaphore(t, b, semaphore.CreateInfo{Shareable: true})

	h, err := a.Export(false)
	if err != nil {
		t.Fatal(err)
	}
	o, err := semaphore.Open(b, semaphore.OpenInfo{Handle: h, AsReference: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Destroy(); err != nil {
		t.Fatal(err)
	}
	if got := r.device.destroyed.Load(); got != 1 {
		t.Errorf("destroyed fences = %d, want 1", got)
	}
	if err := o.Destroy(); err != nil {
		t.Fatal(err)
	}
	if got := r.device.destroyed.Load(); got != 2 {
		t.Errorf("destroyed fences = %d, want 2", got)
	}
}

func TestImportConsumesHandle(t *testing.T) {
	r := newRig(t)
	b := New(r.device)
	a := mustSemaphore(t, b, semaphore.CreateInfo{Shareable: true})
	h, err := a.Export(true)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := semaphore.Open(b, semaphore.OpenInfo{Handle: h, AsReference: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := semaphore.Open(b, semaphore.OpenInfo{Handle: h, AsReference: true}); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("second import error = %v, want ErrUnknownHandle", err)
	}
	if _, _, err := b.Import(0xFFFF, false); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("import of a foreign handle error = %v, want ErrUnknownHandle", err)
	}
}

func TestHostOpsUnsupported(t *testing.T) {
	b := New(newRig(t).device)
	if _, err := b.QueryValue(1); !errors.Is(err, semaphore.ErrUnsupported) {
		t.Errorf("QueryValue error = %v", err)
	}
	if err := b.WaitValue(1, 1, 0); !errors.Is(err, semaphore.ErrUnsupported) {
		t.Errorf("WaitValue error = %v", err)
	}
	if err := b.SignalValue(1, 1); !errors.Is(err, semaphore.ErrUnsupported) {
		t.Errorf("SignalValue error = %v", err)
	}
	if err := b.Destroy(42); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Destroy of unknown handle error = %v", err)
	}
}
