package router

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Key names a navigable destination. Applications usually declare their keys
// as constants, or derive them from a Go type with TypeKey.
//
// Example:
//
//	const (
//	    KeyHome     router.Key = "home"
//	    KeySettings router.Key = "settings"
//	)
type Key string

// View is whatever the visual host knows how to attach. The router never
// inspects it.
type View any

// Params is the caller-supplied parameter bag attached to an entry.
type Params map[string]any

// String returns the value for name if it is a string.
func (p Params) String(name string) (string, bool) {
	v, ok := p[name].(string)
	return v, ok
}

// Int returns the value for name if it is an int.
func (p Params) Int(name string) (int, bool) {
	v, ok := p[name].(int)
	return v, ok
}

// Bool returns the value for name if it is a bool.
func (p Params) Bool(name string) (bool, bool) {
	v, ok := p[name].(bool)
	return v, ok
}

func (p Params) clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Lifecycle is implemented by view-models that want to know when their screen
// becomes the visible one in its region and when it stops being so.
type Lifecycle interface {
	OnActivated(ctx context.Context, entry *Entry) error
	OnDeactivated(ctx context.Context, entry *Entry) error
}

// ParameterReceiver is implemented by view-models that accept navigation
// parameters. It is called right before OnActivated on every activation.
type ParameterReceiver interface {
	OnParameters(params Params) error
}

// Disposer is implemented by view-models that hold resources to release when
// their entry leaves the back-stack for good.
type Disposer interface {
	Dispose()
}

// State is the lifecycle state of an Entry.
type State int

const (
	StateCreated State = iota
	StateActivated
	StateDeactivated
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActivated:
		return "activated"
	case StateDeactivated:
		return "deactivated"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Entry is one back-stack slot. Everything except State is fixed once the
// entry is created; State is only changed by the BackStack that owns it.
type Entry struct {
	ID        uuid.UUID
	Key       Key
	View      View
	ViewModel any
	Params    Params
	CreatedAt time.Time
	Seq       uint64 // ordering tiebreak, unique per controller
	Title     string // resolved from the registration's title resource, if any
	Icon      string // resolved glyph for the registration's icon resource, if any

	caps  Capabilities
	state State
}

// NewEntry builds a detached entry from a resolved registration. Most callers
// never need this; the controller creates entries during navigation.
func NewEntry(key Key, resolved Resolved, params Params, seq uint64) *Entry {
	return &Entry{
		ID:        uuid.New(),
		Key:       key,
		View:      resolved.View,
		ViewModel: resolved.ViewModel,
		Params:    params.clone(),
		CreatedAt: time.Now(),
		Seq:       seq,
		caps:      resolved.Capabilities,
	}
}

// State returns the current lifecycle state.
func (e *Entry) State() State {
	return e.state
}

// Capabilities returns what the entry's view-model supports.
func (e *Entry) Capabilities() Capabilities {
	return e.caps
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s#%d(%s)", e.Key, e.Seq, e.state)
}

// dispose releases the view-model. It is idempotent. A panicking Dispose is
// reported as an error so teardown of the remaining entries can continue.
func (e *Entry) dispose() (err error) {
	if e.state == StateDisposed {
		return nil
	}
	e.state = StateDisposed
	if !e.caps.Disposable {
		return nil
	}
	d, ok := e.ViewModel.(Disposer)
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("router: dispose %q panicked: %v", e.Key, r)
		}
	}()
	d.Dispose()
	return nil
}
