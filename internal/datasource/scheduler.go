package datasource

import (
	"context"
	"sync"
)

// Scheduler runs deferred work on the single thread that owns a
// RemoteDataSource. Defer must not run fn inline.
type Scheduler interface {
	Defer(fn func())
}

// Loop is a Scheduler backed by one goroutine draining an unbounded queue.
// Work deferred before Run starts is kept until Run drains it.
type Loop struct {
	queue  []func()
	notify chan struct{}
	mx     sync.Mutex
}

// NewLoop returns an idle loop.
func NewLoop() *Loop {
	return &Loop{notify: make(chan struct{}, 1)}
}

// Defer queues fn for the loop goroutine.
func (l *Loop) Defer(fn func()) {
	l.mx.Lock()
	l.queue = append(l.queue, fn)
	l.mx.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Sync runs fn on the loop and waits for it to return.
func (l *Loop) Sync(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Defer(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for _, fn := range l.take() {
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.notify:
		}
	}
}

func (l *Loop) take() []func() {
	l.mx.Lock()
	defer l.mx.Unlock()

	q := l.queue
	l.queue = nil
	return q
}
