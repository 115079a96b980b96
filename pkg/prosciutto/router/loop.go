package router

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/internal"
)

// Dispatcher is the UI-affinity thread as seen by the router. Every
// back-stack and region mutation runs inside a function handed to Post.
type Dispatcher interface {
	// Post schedules fn to run on the UI thread. It returns false if the
	// dispatcher has shut down and fn will never run.
	Post(fn func()) bool

	// OnLoop reports whether the caller is currently running on the UI thread.
	OnLoop() bool

	// Done is closed once the dispatcher has shut down.
	Done() <-chan struct{}
}

// Loop is the default Dispatcher: a FIFO task queue consumed by exactly one
// goroutine at a time. Either call Run on a dedicated goroutine, or call Drain
// from a host-driven event loop (for example once per rendered frame).
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool

	owner    atomic.Int64 // goroutine currently consuming the queue, 0 if none
	executed atomic.Uint64

	log *slog.Logger
}

// NewLoop creates a Loop. A nil logger discards task panics' reports.
func NewLoop(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log,
	}
}

// Post enqueues fn. Tasks run in the order they were posted.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run consumes tasks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.owner.CompareAndSwap(0, internal.GoroutineID()) {
		return fmt.Errorf("router: loop already running")
	}
	defer l.owner.Store(0)

	for {
		l.runPending()

		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Drain runs every task queued so far on the calling goroutine and returns
// how many ran. Tasks posted while draining are picked up by the next call.
func (l *Loop) Drain() int {
	id := internal.GoroutineID()
	if !l.owner.CompareAndSwap(0, id) {
		if l.owner.Load() != id {
			return 0
		}
	} else {
		defer l.owner.Store(0)
	}
	return l.runBatch()
}

func (l *Loop) runPending() {
	for l.runBatch() > 0 {
	}
}

func (l *Loop) runBatch() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		l.safeRun(fn)
	}
	l.executed.Add(uint64(len(batch)))
	return len(batch)
}

// safeRun keeps one broken task from taking the UI thread down with it.
func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("UI loop task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// OnLoop reports whether the caller is the goroutine consuming the queue.
func (l *Loop) OnLoop() bool {
	owner := l.owner.Load()
	return owner != 0 && owner == internal.GoroutineID()
}

// Done is closed after Close.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Close stops accepting tasks. Queued tasks that have not started are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Executed returns the number of tasks run since the loop was created.
func (l *Loop) Executed() uint64 {
	return l.executed.Load()
}

// invoke runs fn on the dispatcher and waits for it. Called on the loop it
// runs fn inline.
func invoke(d Dispatcher, fn func()) error {
	if d.OnLoop() {
		fn()
		return nil
	}

	done := make(chan struct{})
	if !d.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-d.Done():
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	}
}
