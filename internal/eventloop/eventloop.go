// Package eventloop runs posted tasks one at a time on a single goroutine,
// the way a page event loop runs network continuations.
package eventloop

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"
)

// ErrClosed is returned by Post after Close.
var ErrClosed = errors.New("eventloop: closed")

// Task is a unit of work run on the loop goroutine.
type Task func()

// Loop is an unbounded FIFO of tasks drained serially.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   *queue.Queue
	closed  bool
	running bool
	done    chan struct{}
}

// New creates a loop. Call Run (usually in its own goroutine) to drain it.
func New() *Loop {
	l := &Loop{
		tasks: queue.New(),
		done:  make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post enqueues task. Tasks posted before Close still run.
func (l *Loop) Post(task Task) error {
	if task == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.tasks.Add(task)
	l.cond.Signal()
	return nil
}

// Run drains tasks until Close is called and the queue is empty. Cancelling
// ctx acts as Close: tasks already queued still run, later posts fail. A
// second concurrent Run returns immediately.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.done)

	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.closed = true
		l.cond.Broadcast()
		l.mu.Unlock()
	})
	defer stop()

	for {
		l.mu.Lock()
		for l.tasks.Length() == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.tasks.Length() == 0 {
			l.mu.Unlock()
			return
		}
		task, _ := l.tasks.Remove().(Task)
		l.mu.Unlock()

		if task != nil {
			task()
		}
	}
}

// Close stops accepting tasks. Run returns once the queue drains.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
