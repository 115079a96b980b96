package router

import "log/slog"

// Host is the platform surface a region renders into.
type Host interface {
	Attach(view View)
	Detach(view View)
}

// HostFunc adapts a pair of functions to Host. Either may be nil.
type HostFunc struct {
	OnAttach func(View)
	OnDetach func(View)
}

func (h HostFunc) Attach(view View) {
	if h.OnAttach != nil {
		h.OnAttach(view)
	}
}

func (h HostFunc) Detach(view View) {
	if h.OnDetach != nil {
		h.OnDetach(view)
	}
}

// RegionOptions configures a region when it is added to a controller.
type RegionOptions struct {
	MaxDepth int // back-stack bound, 0 for unbounded
}

// Region binds one BackStack to one Host. All methods must be called on the
// UI loop.
type Region struct {
	name  string
	stack *BackStack
	host  Host
	shown *Entry
	log   *slog.Logger

	inflight *Request // Resolving or Transitioning
	waiting  *Request // newest request queued behind a transition
	handoff  *handoff // transition of the in-flight request, if any
	removed  bool

	onActivated func(*Region, *Entry)
}

func newRegion(name string, host Host, stack *BackStack, log *slog.Logger) *Region {
	return &Region{
		name:  name,
		stack: stack,
		host:  host,
		log:   log,
	}
}

// Name returns the region's name.
func (r *Region) Name() string {
	return r.name
}

// Stack returns the region's back-stack.
func (r *Region) Stack() *BackStack {
	return r.stack
}

// Shown returns the entry whose view is currently attached, or nil.
func (r *Region) Shown() *Entry {
	return r.shown
}

// Activate brings the host in line with the top of the back-stack. It is a
// no-op, returning false, when the host already shows that entry. A host that
// panics is logged and the region still follows the stack.
func (r *Region) Activate() bool {
	top := r.stack.Peek()
	if top == r.shown {
		return false
	}

	if r.host != nil {
		if r.shown != nil {
			r.callHost("detach", r.shown, r.host.Detach)
		}
		if top != nil {
			r.callHost("attach", top, r.host.Attach)
		}
	}
	r.shown = top

	if r.onActivated != nil {
		r.onActivated(r, top)
	}
	return true
}

// teardown disposes every entry top to bottom and detaches the shown view.
func (r *Region) teardown() []*Entry {
	r.removed = true
	disposed := r.stack.Clear(false)
	if r.host != nil && r.shown != nil {
		r.callHost("detach", r.shown, r.host.Detach)
	}
	r.shown = nil
	return disposed
}

func (r *Region) callHost(op string, e *Entry, fn func(View)) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Host panicked", "region", r.name, "op", op, "key", e.Key, "seq", e.Seq, "panic", p)
		}
	}()
	fn(e.View)
}
