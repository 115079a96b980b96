package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TransitionKind describes why the visible entry of a region is changing.
type TransitionKind int

const (
	TransitionForward TransitionKind = iota // push
	TransitionBack                          // pop
	TransitionReplace                       // redirect, top replaced
	TransitionClear                         // history truncated
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionForward:
		return "forward"
	case TransitionBack:
		return "back"
	case TransitionReplace:
		return "replace"
	case TransitionClear:
		return "clear"
	default:
		return fmt.Sprintf("transition(%d)", int(k))
	}
}

// Animation decides how long the visual handoff between two entries takes.
// The coordinator waits that long between deactivating the outgoing entry and
// activating the incoming one, without holding the UI loop.
type Animation interface {
	Duration(kind TransitionKind, from, to *Entry) time.Duration
}

// NoAnimation swaps entries immediately.
type NoAnimation struct{}

func (NoAnimation) Duration(TransitionKind, *Entry, *Entry) time.Duration { return 0 }

// FixedAnimation uses the same duration for every transition.
type FixedAnimation time.Duration

func (a FixedAnimation) Duration(TransitionKind, *Entry, *Entry) time.Duration {
	return time.Duration(a)
}

// handoff is one visual swap within a region.
type handoff struct {
	ctx    context.Context
	region string
	kind   TransitionKind
	from   *Entry // outgoing, nil when the region is empty
	to     *Entry // incoming, nil when the region is being emptied

	commit func()          // applies the back-stack mutation
	abort  func()          // releases the incoming entry when nothing is committed
	done   func(err error) // always called exactly once

	finished   bool
	timer      *time.Timer
	stopCancel func() bool
}

// Coordinator sequences handoffs on the UI loop: the outgoing entry is
// deactivated, the animation elapses, then the incoming entry is activated
// and the back-stack mutation is committed.
type Coordinator struct {
	loop      Dispatcher
	animation Animation
	log       *slog.Logger
	debug     bool
}

// NewCoordinator creates a Coordinator. A nil animation means NoAnimation.
func NewCoordinator(loop Dispatcher, animation Animation, log *slog.Logger, debug bool) *Coordinator {
	if animation == nil {
		animation = NoAnimation{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		loop:      loop,
		animation: animation,
		log:       log,
		debug:     debug,
	}
}

// begin starts a handoff. Must run on the loop.
func (c *Coordinator) begin(h *handoff) {
	assertLoop(c.debug, c.loop, "Coordinator.begin")

	if h.from == nil {
		c.complete(h)
		return
	}

	c.deactivate(h.ctx, h.from)

	d := c.animation.Duration(h.kind, h.from, h.to)
	if d <= 0 {
		c.complete(h)
		return
	}

	c.log.Debug("Transition waiting", "region", h.region, "kind", h.kind.String(), "duration", d)

	h.timer = time.AfterFunc(d, func() {
		c.loop.Post(func() { c.complete(h) })
	})
	h.stopCancel = context.AfterFunc(h.ctx, func() {
		c.loop.Post(func() { c.cancel(h) })
	})
}

func (c *Coordinator) complete(h *handoff) {
	if h.finished {
		return
	}
	h.finished = true
	if h.stopCancel != nil {
		h.stopCancel()
	}

	if err := h.ctx.Err(); err != nil {
		c.rollback(h, cancelError(h.ctx))
		return
	}

	if h.to != nil {
		if err := c.activate(h.ctx, h.to); err != nil {
			c.log.Warn("Activation failed, rolling back",
				"region", h.region, "key", h.to.Key, "seq", h.to.Seq, "error", err)
			c.rollback(h, err)
			return
		}
	}

	if err := safeHook(func() error { h.commit(); return nil }); err != nil {
		c.log.Error("Commit failed", "region", h.region, "kind", h.kind.String(), "error", err)
		h.done(fmt.Errorf("router: commit %s transition in %q: %w", h.kind, h.region, err))
		return
	}
	h.done(nil)
}

func (c *Coordinator) cancel(h *handoff) {
	if h.finished {
		return
	}
	h.finished = true
	if h.timer != nil {
		h.timer.Stop()
	}

	c.log.Debug("Transition cancelled", "region", h.region, "kind", h.kind.String())
	c.rollback(h, cancelError(h.ctx))
}

// rollback re-activates the outgoing entry so the region is left showing
// what it showed before the handoff began.
func (c *Coordinator) rollback(h *handoff, err error) {
	if h.from != nil {
		if hookErr := c.activate(h.ctx, h.from); hookErr != nil {
			c.log.Error("Re-activation after rollback failed",
				"region", h.region, "key", h.from.Key, "error", hookErr)
		}
	}
	if h.abort != nil {
		h.abort()
	}
	h.done(err)
}

// deactivate runs the outgoing hook. Failures are logged, never fatal: a
// broken outgoing screen must not trap the user.
func (c *Coordinator) deactivate(ctx context.Context, e *Entry) {
	if !e.caps.HasLifecycleHooks {
		return
	}
	lc, ok := e.ViewModel.(Lifecycle)
	if !ok {
		return
	}

	err := safeHook(func() error {
		return lc.OnDeactivated(context.WithoutCancel(ctx), e)
	})
	if err != nil {
		c.log.Warn("Deactivate hook failed", "key", e.Key, "seq", e.Seq, "error", err)
	}
}

func (c *Coordinator) activate(ctx context.Context, e *Entry) error {
	hookCtx := context.WithoutCancel(ctx)

	if e.caps.HasParameters {
		if pr, ok := e.ViewModel.(ParameterReceiver); ok {
			if err := safeHook(func() error { return pr.OnParameters(e.Params) }); err != nil {
				return &HookError{Phase: "parameters", Key: e.Key, Err: err}
			}
		}
	}

	if e.caps.HasLifecycleHooks {
		if lc, ok := e.ViewModel.(Lifecycle); ok {
			if err := safeHook(func() error { return lc.OnActivated(hookCtx, e) }); err != nil {
				return &HookError{Phase: "activate", Key: e.Key, Err: err}
			}
		}
	}
	return nil
}

// safeHook turns a panicking hook into an error.
func safeHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func assertLoop(debug bool, d Dispatcher, op string) {
	if debug && !d.OnLoop() {
		panic("router: " + op + " called off the UI loop")
	}
}
