package relay

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is submitted after the relay was closed
var ErrClosed = errors.New("relay closed")

type job struct {
	run  func()
	done chan struct{}
}

// writer runs store jobs one at a time in submission order
type writer struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

func newWriter(queueSize int) *writer {
	w := &writer{
		jobs: make(chan job, queueSize),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *writer) loop() {
	defer close(w.done)
	for j := range w.jobs {
		j.run()
		close(j.done)
	}
}

// submit queues fn and waits for it to finish. If ctx ends first, submit returns
// early but fn still runs to completion once dequeued.
func (w *writer) submit(ctx context.Context, fn func()) error {
	j := job{run: fn, done: make(chan struct{})}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrClosed
	}
	select {
	case w.jobs <- j:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting work and waits for queued jobs to drain
func (w *writer) close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	<-w.done
}
