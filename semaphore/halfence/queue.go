package halfence

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// point is a signal submission on a queue. Its index stays 0 until the
// empty batch carrying it has been submitted.
type point struct {
	queue hal.Queue
	index atomic.Uint64
}

func (p *point) retired() bool {
	idx := p.index.Load()
	return idx != 0 && p.queue.PollCompleted() >= idx
}

// op is one queued semaphore operation: a wait on obj, or a deferred
// signal point.
type op struct {
	obj    *object
	signal *point
}

// Queue wraps a hal.Queue so that semaphore waits gate its submissions.
// Pass it wherever a gpucontext.Queue is expected.
type Queue struct {
	hal.Queue

	mu  sync.Mutex
	ops []op
}

// NewQueue wraps q.
func NewQueue(q hal.Queue) *Queue {
	return &Queue{Queue: q}
}

// Submit submits commandBuffers once every pending semaphore wait has been
// satisfied. While one is not, it returns hal.ErrNotReady and submits
// nothing; signals queued behind the blocking wait stay queued.
func (q *Queue) Submit(commandBuffers []hal.CommandBuffer) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.drain(); err != nil {
		return 0, err
	}
	return q.Queue.Submit(commandBuffers)
}

// Flush resolves queued waits and submits the signals behind them without
// submitting any work. It returns hal.ErrNotReady while a wait blocks.
func (q *Queue) Flush() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.drain()
}

// PendingWaits returns the number of semaphore waits not yet satisfied.
func (q *Queue) PendingWaits() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, o := range q.ops {
		if o.obj != nil {
			n++
		}
	}
	return n
}

func (q *Queue) addWait(o *object) {
	q.mu.Lock()
	q.ops = append(q.ops, op{obj: o})
	q.mu.Unlock()
}

// signalPoint returns the point a signal on q completes at. With waits
// pending, the point is deferred until drain reaches it.
func (q *Queue) signalPoint() (*point, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := &point{queue: q.Queue}
	if len(q.ops) > 0 {
		q.ops = append(q.ops, op{signal: p})
		return p, nil
	}
	if err := q.submitPoint(p); err != nil {
		return nil, err
	}
	return p, nil
}

// drain runs queued operations in order. q.mu must be held.
func (q *Queue) drain() error {
	for len(q.ops) > 0 {
		next := q.ops[0]
		if next.obj != nil {
			if !next.obj.consume() {
				return hal.ErrNotReady
			}
		} else if err := q.submitPoint(next.signal); err != nil {
			return err
		}
		q.ops[0] = op{}
		q.ops = q.ops[1:]
	}
	return nil
}

func (q *Queue) submitPoint(p *point) error {
	idx, err := q.Queue.Submit(nil)
	if err != nil {
		return err
	}
	p.index.Store(idx)
	return nil
}
