//go:build linux

package futex

import "sync"

// Queue executes GPU-side semaphore operations in submission order on its
// own goroutine. A wait stalls every operation enqueued after it until the
// semaphore is signaled.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ops    []func()
	closed bool
	done   chan struct{}
}

// NewQueue starts a queue. Close stops it.
func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Submit enqueues op behind all earlier work. It never blocks on the work
// itself.
func (q *Queue) Submit(op func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.ops = append(q.ops, op)
	q.cond.Signal()
	return nil
}

// Flush blocks until everything enqueued before it has executed.
func (q *Queue) Flush() error {
	done := make(chan struct{})
	if err := q.Submit(func() { close(done) }); err != nil {
		return err
	}
	<-done
	return nil
}

// Close drains the queue and stops its goroutine. Work stalled on a wait
// that is never signaled keeps Close from returning.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.ops) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.ops) == 0 {
			q.mu.Unlock()
			return
		}
		op := q.ops[0]
		q.ops[0] = nil
		q.ops = q.ops[1:]
		q.mu.Unlock()

		op()
	}
}
