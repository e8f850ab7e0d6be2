package interpreter

import (
	"sync"
	"time"
)

// eventLoop serializes all execution pumping and promise continuations on a
// single worker goroutine. Interleaving between executions therefore happens
// only at await boundaries, and scope mutation needs no locking.
type eventLoop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	active bool
}

func newEventLoop() *eventLoop {
	l := &eventLoop{}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post enqueues task to run on the loop goroutine.
func (l *eventLoop) Post(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, task)
	l.cond.Broadcast()
	l.mu.Unlock()
}

// After schedules task on the loop after d elapses.
func (l *eventLoop) After(d time.Duration, task func()) *time.Timer {
	return time.AfterFunc(d, func() {
		l.Post(task)
	})
}

func (l *eventLoop) run() {
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.active = false
			l.cond.Broadcast()
			l.cond.Wait()
		}
		if l.closed {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue = l.queue[1:]
		l.active = true
		l.mu.Unlock()
		task()
	}
}

// Drain blocks until the queue is empty and no task is running.
func (l *eventLoop) Drain() {
	l.mu.Lock()
	for (len(l.queue) > 0 || l.active) && !l.closed {
		l.cond.Wait()
	}
	l.mu.Unlock()
}

// Close stops the worker once the current task finishes. Pending tasks are
// dropped.
func (l *eventLoop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}
