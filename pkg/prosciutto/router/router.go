package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/internal"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/resources"
)

// Controller accepts navigation requests from any goroutine, marshals them
// onto the UI loop, and drives registry lookups, back-stack mutation and the
// transition handoff for each region.
type Controller struct {
	registry  *Registry
	loop      Dispatcher
	coord     *Coordinator
	bus       *Bus
	resources resources.Provider
	animation Animation
	log       *slog.Logger
	debug     bool

	regions map[string]*Region // owned by the loop

	seq    atomic.Uint64
	closed atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithAnimation sets the transition animation. Defaults to NoAnimation.
func WithAnimation(a Animation) Option {
	return func(c *Controller) {
		c.animation = a
	}
}

// WithResources sets the provider used to resolve entry titles and icons.
func WithResources(p resources.Provider) Option {
	return func(c *Controller) {
		c.resources = p
	}
}

// WithDebug enables UI-loop affinity assertions. Violations panic.
func WithDebug(debug bool) Option {
	return func(c *Controller) {
		c.debug = debug
	}
}

// WithBus publishes events on an existing bus instead of a private one.
func WithBus(bus *Bus) Option {
	return func(c *Controller) {
		c.bus = bus
	}
}

// New creates a Controller over registry, running all state changes on loop.
func New(registry *Registry, loop Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		registry: registry,
		loop:     loop,
		regions:  make(map[string]*Region),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = internal.GetInternalLogger()
	}
	if c.bus == nil {
		c.bus = NewBus(c.log)
	}
	c.coord = NewCoordinator(loop, c.animation, c.log, c.debug)
	return c
}

// Registry returns the registry the controller resolves against.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Bus returns the event bus.
func (c *Controller) Bus() *Bus {
	return c.bus
}

// Subscribe registers an event handler; see the Event* constants.
func (c *Controller) Subscribe(eventType string, handler Handler) string {
	return c.bus.Subscribe(eventType, handler)
}

// Invoke runs fn on the UI loop and waits for it to return.
func (c *Controller) Invoke(fn func()) error {
	return invoke(c.loop, fn)
}

// AddRegion creates a named region bound to host. host may be nil for a
// headless region.
func (c *Controller) AddRegion(name string, host Host, opts RegionOptions) error {
	if c.closed.Load() {
		return ErrClosed
	}

	var err error
	invokeErr := c.Invoke(func() {
		if _, exists := c.regions[name]; exists {
			err = &DuplicateRegionError{Region: name}
			return
		}
		log := c.log.With("region", name)
		stack := NewStack(WithMaxDepth(opts.MaxDepth), WithStackLogger(log))
		region := newRegion(name, host, stack, c.log)
		region.onActivated = c.regionActivated
		c.regions[name] = region
		c.log.Debug("Region added", "region", name, "max_depth", opts.MaxDepth)
	})
	return errors.Join(invokeErr, err)
}

// RemoveRegion tears a region down: pending requests fail, and every entry
// is disposed from the top of the stack down.
func (c *Controller) RemoveRegion(name string) error {
	var err error
	invokeErr := c.Invoke(func() {
		region, ok := c.regions[name]
		if !ok {
			err = &UnknownRegionError{Region: name}
			return
		}
		delete(c.regions, name)
		c.teardown(region, &UnknownRegionError{Region: name})
	})
	return errors.Join(invokeErr, err)
}

// Regions returns the region names in sorted order.
func (c *Controller) Regions() ([]string, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	var names []string
	err := c.Invoke(func() {
		names = slices.Sorted(maps.Keys(c.regions))
	})
	return names, err
}

// Navigate starts a navigation to key in region and returns immediately.
func (c *Controller) Navigate(ctx context.Context, region string, key Key, params Params, opts ...NavigateOption) *Request {
	req := c.newRequest(ctx, opNavigate, region)
	req.key = key
	req.params = params
	for _, opt := range opts {
		opt(&req.config)
	}
	return c.submit(req)
}

// NavigateTo navigates and waits for the outcome. Cancelling ctx cancels the
// navigation if it has not committed yet.
func (c *Controller) NavigateTo(ctx context.Context, region string, key Key, params Params, opts ...NavigateOption) Result {
	return c.Navigate(ctx, region, key, params, opts...).Wait(context.WithoutCancel(ctx))
}

// GoBack starts a back navigation in region. A region at its root fails
// with ErrEmptyStack.
func (c *Controller) GoBack(ctx context.Context, region string) *Request {
	return c.submit(c.newRequest(ctx, opBack, region))
}

// Back goes back and waits for the outcome.
func (c *Controller) Back(ctx context.Context, region string) Result {
	return c.GoBack(ctx, region).Wait(context.WithoutCancel(ctx))
}

// Clear starts clearing region's history. With keepRoot the bottom entry
// stays and becomes visible again.
func (c *Controller) Clear(ctx context.Context, region string, keepRoot bool) *Request {
	req := c.newRequest(ctx, opClear, region)
	req.keepRoot = keepRoot
	return c.submit(req)
}

// ClearRegion clears and waits for the outcome.
func (c *Controller) ClearRegion(ctx context.Context, region string, keepRoot bool) Result {
	return c.Clear(ctx, region, keepRoot).Wait(context.WithoutCancel(ctx))
}

// Target is one leg of a fan-out navigation.
type Target struct {
	Region  string
	Key     Key
	Params  Params
	Options []NavigateOption
}

// NavigateMany issues one request per target and waits for all of them.
// Targets are independent: a failure in one region does not cancel the
// others. The returned error is the first non-committed outcome, if any.
func (c *Controller) NavigateMany(ctx context.Context, targets ...Target) ([]Result, error) {
	results := make([]Result, len(targets))

	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			results[i] = c.NavigateTo(ctx, t.Region, t.Key, t.Params, t.Options...)
			if !results[i].OK() {
				return results[i].Err
			}
			return nil
		})
	}
	return results, g.Wait()
}

// Depth returns the back-stack depth of region.
func (c *Controller) Depth(region string) (int, error) {
	var depth int
	err := c.withRegion(region, func(r *Region) {
		depth = r.stack.Len()
	})
	return depth, err
}

// Current returns the top entry of region, nil if empty.
func (c *Controller) Current(region string) (*Entry, error) {
	var top *Entry
	err := c.withRegion(region, func(r *Region) {
		top = r.stack.Peek()
	})
	return top, err
}

// History returns region's entries, bottom first.
func (c *Controller) History(region string) ([]*Entry, error) {
	var entries []*Entry
	err := c.withRegion(region, func(r *Region) {
		entries = r.stack.Entries()
	})
	return entries, err
}

// CanGoBack reports whether a back navigation in region could succeed; the
// UI uses it to enable the back affordance.
func (c *Controller) CanGoBack(region string) bool {
	depth, err := c.Depth(region)
	return err == nil && depth > 1
}

// Close fails pending requests and tears every region down. The loop itself
// is left running; its owner stops it.
func (c *Controller) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.Invoke(func() {
		for _, name := range slices.Sorted(maps.Keys(c.regions)) {
			c.teardown(c.regions[name], ErrClosed)
			delete(c.regions, name)
		}
		c.log.Debug("Controller closed")
	})
}

func (c *Controller) withRegion(name string, fn func(*Region)) error {
	var err error
	invokeErr := c.Invoke(func() {
		region, ok := c.regions[name]
		if !ok {
			err = &UnknownRegionError{Region: name}
			return
		}
		fn(region)
	})
	return errors.Join(invokeErr, err)
}

func (c *Controller) newRequest(ctx context.Context, op requestOp, region string) *Request {
	reqCtx, cancel := context.WithCancelCause(ctx)
	return &Request{
		op:     op,
		region: region,
		seq:    c.seq.Inc(),
		ctx:    reqCtx,
		cancel: cancel,
		loop:   c.loop,
		done:   make(chan struct{}),
	}
}

// submit is the single point where a request crosses onto the UI loop.
func (c *Controller) submit(req *Request) *Request {
	if c.closed.Load() {
		req.finish(Result{State: RequestFailed, Kind: KindClosed, Err: ErrClosed})
		return req
	}

	req.stopWatch = context.AfterFunc(req.ctx, func() {
		c.loop.Post(func() { c.cancelled(req) })
	})

	if !c.loop.Post(func() { c.schedule(req) }) {
		req.finish(Result{State: RequestFailed, Kind: KindClosed, Err: ErrClosed})
	}
	return req
}

// schedule applies per-region ordering: one request in flight, a newer
// request supersedes one still resolving, and only the newest request
// waits behind a transition.
func (c *Controller) schedule(req *Request) {
	assertLoop(c.debug, c.loop, "Controller.schedule")

	if req.finished() {
		return
	}
	if c.closed.Load() {
		c.fail(nil, req, ErrClosed)
		return
	}

	region, ok := c.regions[req.region]
	if !ok {
		c.fail(nil, req, &UnknownRegionError{Region: req.region})
		return
	}
	if req.ctx.Err() != nil {
		c.cancelled(req)
		return
	}

	switch {
	case region.inflight == nil:
		c.start(region, req)
	case region.inflight.State() == RequestResolving:
		c.supersede(region, region.inflight)
		c.start(region, req)
	default:
		if region.waiting != nil {
			c.supersede(region, region.waiting)
		}
		region.waiting = req
		c.log.Debug("Request queued behind transition",
			"region", region.name, "op", req.op.String(), "key", req.key, "seq", req.seq)
	}
}

func (c *Controller) start(region *Region, req *Request) {
	region.inflight = req
	req.setState(RequestResolving)

	switch req.op {
	case opNavigate:
		c.resolve(region, req)
	case opBack:
		c.transitionBack(region, req)
	case opClear:
		c.transitionClear(region, req)
	}
}

// resolve runs the factories off the loop; they may be slow, and a newer
// request may supersede this one meanwhile.
func (c *Controller) resolve(region *Region, req *Request) {
	go func() {
		resolved, err := c.registry.Resolve(req.ctx, req.key)
		if !c.loop.Post(func() { c.resolved(region, req, resolved, err) }) {
			req.finish(Result{State: RequestFailed, Kind: KindClosed, Err: ErrClosed})
		}
	}()
}

func (c *Controller) resolved(region *Region, req *Request, resolved Resolved, err error) {
	if req.finished() || region.inflight != req {
		// Superseded or cancelled while resolving: none of its hooks run.
		return
	}

	if err != nil {
		if req.ctx.Err() != nil {
			c.cancelled(req)
			return
		}
		c.fail(region, req, err)
		return
	}

	entry := c.newEntry(req, resolved)
	c.transitionNavigate(region, req, entry)
}

func (c *Controller) newEntry(req *Request, resolved Resolved) *Entry {
	entry := NewEntry(req.key, resolved, req.params, req.seq)
	if c.resources == nil {
		return entry
	}

	if resolved.Title != "" {
		res, err := c.resource(resolved.Title)
		if err != nil {
			c.log.Warn("Title resource unavailable", "key", req.key, "resource", resolved.Title, "error", err)
		} else {
			entry.Title = res.Label()
		}
	}
	if resolved.Icon != "" {
		res, err := c.resource(resolved.Icon)
		if err != nil {
			c.log.Warn("Icon resource unavailable", "key", req.key, "resource", resolved.Icon, "error", err)
		} else {
			entry.Icon = res.Glyph
		}
	}
	return entry
}

func (c *Controller) resource(key string) (res resources.Resource, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.resources.Resolve(key)
}

func (c *Controller) transitionNavigate(region *Region, req *Request, entry *Entry) {
	stack := region.stack
	from := stack.Peek()

	kind := TransitionForward
	switch req.config.mode {
	case ModeReplace:
		kind = TransitionReplace
		if req.config.preserveParams && from != nil {
			merged := from.Params.clone()
			maps.Copy(merged, entry.Params)
			entry.Params = merged
		}
	case ModeClearHistory:
		kind = TransitionClear
	}

	c.handoff(region, req, &handoff{
		kind: kind,
		from: from,
		to:   entry,
		commit: func() {
			switch req.config.mode {
			case ModeReplace:
				stack.Replace(entry)
			case ModeClearHistory:
				stack.Clear(false)
				stack.Push(entry)
			default:
				stack.Push(entry)
			}
			region.Activate()
		},
		abort: func() {
			if err := entry.dispose(); err != nil {
				c.log.Error("Dispose failed", "region", region.name, "key", entry.Key, "error", err)
			}
		},
	})
}

func (c *Controller) transitionBack(region *Region, req *Request) {
	stack := region.stack
	if stack.Len() < 2 {
		c.fail(region, req, ErrEmptyStack)
		return
	}

	c.handoff(region, req, &handoff{
		kind: TransitionBack,
		from: stack.Peek(),
		to:   stack.Below(),
		commit: func() {
			if _, err := stack.Pop(); err != nil {
				c.log.Error("Pop failed during back navigation", "region", region.name, "error", err)
			}
			region.Activate()
		},
	})
}

func (c *Controller) transitionClear(region *Region, req *Request) {
	stack := region.stack

	var to *Entry
	if req.keepRoot && stack.Len() > 1 {
		to = stack.Root()
	}

	from := stack.Peek()
	if req.keepRoot && stack.Len() == 1 {
		// Only the root is left; there is nothing to hand off.
		from = nil
		to = nil
	}

	c.handoff(region, req, &handoff{
		kind: TransitionClear,
		from: from,
		to:   to,
		commit: func() {
			stack.Clear(req.keepRoot)
			region.Activate()
		},
	})
}

func (c *Controller) handoff(region *Region, req *Request, h *handoff) {
	req.setState(RequestTransitioning)

	h.ctx = req.ctx
	h.region = region.name
	h.done = func(err error) {
		region.handoff = nil
		c.handoffDone(region, req, err)
	}
	region.handoff = h

	c.log.Debug("Transition started",
		"region", region.name, "op", req.op.String(), "kind", h.kind.String(), "key", req.key, "seq", req.seq)
	c.coord.begin(h)
}

func (c *Controller) handoffDone(region *Region, req *Request, err error) {
	switch {
	case err == nil:
		top := region.stack.Peek()
		if req.finish(Result{State: RequestCommitted, Entry: top}) {
			c.log.Debug("Navigation committed",
				"region", region.name, "key", req.key, "seq", req.seq, "depth", region.stack.Len())
			c.bus.Publish(NavigatedEvent{
				baseEvent: newBaseEvent(EventNavigated),
				Region:    region.name,
				Entry:     top,
				Kind:      kindFor(req),
			})
		}
	case errors.Is(err, ErrCancelled):
		c.finishCancelled(req, err)
	default:
		c.fail(nil, req, err)
	}

	c.advance(region, req)
}

// advance starts the request waiting behind req, if any.
func (c *Controller) advance(region *Region, req *Request) {
	if region.inflight != req {
		return
	}
	region.inflight = nil

	for region.waiting != nil && region.inflight == nil {
		next := region.waiting
		region.waiting = nil
		if next.finished() {
			continue
		}
		c.start(region, next)
	}
}

// cancelled handles caller cancellation. A request that is mid-transition
// is left to the coordinator, which rolls the handoff back.
func (c *Controller) cancelled(req *Request) {
	if req.finished() || req.State() == RequestTransitioning {
		return
	}

	c.finishCancelled(req, cancelError(req.ctx))

	if region, ok := c.regions[req.region]; ok {
		if region.waiting == req {
			region.waiting = nil
		}
		c.advance(region, req)
	}
}

func (c *Controller) finishCancelled(req *Request, err error) {
	if req.finish(Result{State: RequestCancelled, Kind: KindCancelled, Err: err}) {
		c.log.Debug("Navigation cancelled", "region", req.region, "key", req.key, "seq", req.seq)
	}
}

func (c *Controller) supersede(region *Region, old *Request) {
	if region.inflight == old {
		region.inflight = nil
	}
	if region.waiting == old {
		region.waiting = nil
	}

	if old.finish(Result{State: RequestSuperseded, Err: ErrSuperseded}) {
		c.log.Debug("Navigation superseded", "region", region.name, "key", old.key, "seq", old.seq)
		c.bus.Publish(SupersededEvent{
			baseEvent: newBaseEvent(EventSuperseded),
			Region:    region.name,
			Key:       old.key,
			Seq:       old.seq,
		})
	}
}

// fail terminates req as Failed. When region is non-nil the region's queue
// is advanced as well.
func (c *Controller) fail(region *Region, req *Request, err error) {
	kind := KindOf(err)
	if req.finish(Result{State: RequestFailed, Kind: kind, Err: err}) {
		c.log.Warn("Navigation failed",
			"region", req.region, "key", req.key, "seq", req.seq, "kind", kind.String(), "error", err)
		c.bus.Publish(NavigationFailedEvent{
			baseEvent: newBaseEvent(EventNavigationFailed),
			Region:    req.region,
			Key:       req.key,
			Kind:      kind,
			Err:       err,
		})
	}

	if region != nil {
		c.advance(region, req)
	}
}

func (c *Controller) teardown(region *Region, reason error) {
	if h := region.handoff; h != nil && !h.finished {
		h.finished = true
		if h.timer != nil {
			h.timer.Stop()
		}
		if h.stopCancel != nil {
			h.stopCancel()
		}
		if h.abort != nil {
			h.abort()
		}
		region.handoff = nil
	}

	for _, req := range []*Request{region.inflight, region.waiting} {
		if req != nil {
			c.fail(nil, req, reason)
		}
	}
	region.inflight = nil
	region.waiting = nil

	disposed := region.teardown()
	c.log.Debug("Region torn down", "region", region.name, "disposed", len(disposed))
}

func (c *Controller) regionActivated(region *Region, entry *Entry) {
	c.bus.Publish(RegionActivatedEvent{
		baseEvent: newBaseEvent(EventRegionActivated),
		Region:    region.name,
		Entry:     entry,
	})
}

func kindFor(req *Request) TransitionKind {
	switch req.op {
	case opBack:
		return TransitionBack
	case opClear:
		return TransitionClear
	}
	switch req.config.mode {
	case ModeReplace:
		return TransitionReplace
	case ModeClearHistory:
		return TransitionClear
	default:
		return TransitionForward
	}
}
