package livesync

import (
	"context"
	"sync"
)

// Dispatcher runs decode-and-apply tasks one at a time, in the order they were dispatched.
type Dispatcher interface {
	Dispatch(task func())
}

// DefaultQueueSize is the task buffer used when none is configured.
const DefaultQueueSize = 64

// Queue is a [Dispatcher] backed by a single goroutine.
//
// Dispatch blocks while the buffer is full, which holds back the transport reader instead of
// dropping or reordering frames.
type Queue struct {
	ctx   context.Context
	tasks chan func()
	done  chan struct{}

	mu     sync.RWMutex // guards closed against concurrent sends
	closed bool
}

// NewQueue starts a Queue that stops when ctx is cancelled or Close is called.
func NewQueue(ctx context.Context, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		ctx:   ctx,
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			task()
		}
	}
}

// Dispatch enqueues task. Tasks dispatched after Close or cancellation are discarded.
func (q *Queue) Dispatch(task func()) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}

	select {
	case q.tasks <- task:
	case <-q.ctx.Done():
	}
}

// Close stops accepting tasks and waits until queued ones have run.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()
	<-q.done
}

// Done is closed once the queue goroutine has exited.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}
