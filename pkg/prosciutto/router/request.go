package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// RequestState tracks a navigation request through the controller.
//
//	Requested → Resolving → Transitioning → Committed
//	                     ↘ Failed
//	(any non-terminal)   → Superseded | Cancelled
type RequestState int32

const (
	RequestRequested RequestState = iota
	RequestResolving
	RequestTransitioning
	RequestCommitted
	RequestFailed
	RequestSuperseded
	RequestCancelled
)

func (s RequestState) String() string {
	switch s {
	case RequestRequested:
		return "requested"
	case RequestResolving:
		return "resolving"
	case RequestTransitioning:
		return "transitioning"
	case RequestCommitted:
		return "committed"
	case RequestFailed:
		return "failed"
	case RequestSuperseded:
		return "superseded"
	case RequestCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("request_state(%d)", int(s))
	}
}

// Terminal reports whether s is a final state.
func (s RequestState) Terminal() bool {
	return s >= RequestCommitted
}

// Result is the outcome of a navigation request.
type Result struct {
	Region string
	Key    Key
	Seq    uint64
	State  RequestState
	Entry  *Entry // the region's top entry after commit; nil if the region was emptied
	Kind   ErrorKind
	Err    error
}

// OK reports whether the request committed.
func (r Result) OK() bool {
	return r.State == RequestCommitted
}

// Mode selects how a navigation changes the back-stack.
type Mode int

const (
	ModePush         Mode = iota // append to history
	ModeReplace                  // redirect: the current top leaves history
	ModeClearHistory             // drop history, then push
)

// NavigateOption customizes a single navigation.
type NavigateOption func(*navigateConfig)

type navigateConfig struct {
	mode           Mode
	preserveParams bool
}

// WithMode selects the back-stack mode for a navigation.
func WithMode(mode Mode) NavigateOption {
	return func(c *navigateConfig) {
		c.mode = mode
	}
}

// WithPreserveParams makes a ModeReplace navigation inherit the replaced
// entry's parameters. Parameters passed explicitly win on conflict.
func WithPreserveParams() NavigateOption {
	return func(c *navigateConfig) {
		c.preserveParams = true
	}
}

type requestOp int

const (
	opNavigate requestOp = iota
	opBack
	opClear
)

func (op requestOp) String() string {
	switch op {
	case opNavigate:
		return "navigate"
	case opBack:
		return "back"
	default:
		return "clear"
	}
}

// Request is the handle for an in-flight navigation.
type Request struct {
	op       requestOp
	region   string
	key      Key
	params   Params
	config   navigateConfig
	keepRoot bool
	seq      uint64

	ctx       context.Context
	cancel    context.CancelCauseFunc
	stopWatch func() bool
	loop      Dispatcher

	state      atomic.Int32
	finishOnce sync.Once
	result     Result
	done       chan struct{}
}

// Region returns the target region.
func (r *Request) Region() string {
	return r.region
}

// Key returns the requested key; empty for back and clear requests.
func (r *Request) Key() Key {
	return r.key
}

// Seq returns the controller-wide sequence number of the request.
func (r *Request) Seq() uint64 {
	return r.seq
}

// State returns the current state. Safe from any goroutine.
func (r *Request) State() RequestState {
	return RequestState(r.state.Load())
}

// Done is closed once the request reaches a terminal state.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Result returns the outcome if the request has finished.
func (r *Request) Result() (Result, bool) {
	select {
	case <-r.done:
		return r.result, true
	default:
		return Result{}, false
	}
}

// Cancel asks the controller to abandon the request. It has no effect once
// the request has committed; undoing a shown screen takes a new navigation.
func (r *Request) Cancel() {
	r.cancel(ErrCancelled)
}

// Wait blocks until the request finishes, ctx is done or the loop shuts
// down. Calling Wait on the UI loop itself returns ErrOnLoop instead of
// deadlocking.
func (r *Request) Wait(ctx context.Context) Result {
	if res, ok := r.Result(); ok {
		return res
	}

	if r.loop.OnLoop() {
		return r.partial(ErrOnLoop, KindInternal)
	}

	select {
	case <-r.done:
		return r.result
	case <-ctx.Done():
		return r.partial(ctx.Err(), KindCancelled)
	case <-r.loop.Done():
		if res, ok := r.Result(); ok {
			return res
		}
		return r.partial(ErrClosed, KindClosed)
	}
}

func (r *Request) partial(err error, kind ErrorKind) Result {
	return Result{
		Region: r.region,
		Key:    r.key,
		Seq:    r.seq,
		State:  r.State(),
		Kind:   kind,
		Err:    err,
	}
}

func (r *Request) setState(s RequestState) {
	r.state.Store(int32(s))
}

func (r *Request) finished() bool {
	return r.State().Terminal()
}

// finish records the terminal result. Only the first call has any effect.
func (r *Request) finish(res Result) bool {
	first := false
	r.finishOnce.Do(func() {
		first = true
		res.Region = r.region
		res.Key = r.key
		res.Seq = r.seq
		r.result = res
		r.setState(res.State)
		if r.stopWatch != nil {
			r.stopWatch()
		}
		cause := res.Err
		if cause == nil {
			cause = context.Canceled
		}
		r.cancel(cause)
		close(r.done)
	})
	return first
}

// cancelError describes why ctx was cancelled, always matching ErrCancelled.
func cancelError(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, ErrCancelled) {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
