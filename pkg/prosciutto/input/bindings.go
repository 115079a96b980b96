// Package input turns virtual button presses into navigation requests.
package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
)

// Action is what a bound button asks the navigator to do.
type Action int

const (
	ActionNone Action = iota
	// ActionBack pops the region's back-stack.
	ActionBack
	// ActionHome clears the region down to its root.
	ActionHome
	// ActionClear empties the region entirely.
	ActionClear
)

func (a Action) String() string {
	switch a {
	case ActionBack:
		return "back"
	case ActionHome:
		return "home"
	case ActionClear:
		return "clear"
	default:
		return "none"
	}
}

// ParseAction is the inverse of Action.String.
func ParseAction(name string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "back":
		return ActionBack, nil
	case "home":
		return ActionHome, nil
	case "clear":
		return ActionClear, nil
	case "none", "":
		return ActionNone, nil
	default:
		return ActionNone, fmt.Errorf("input: unknown action %q", name)
	}
}

// Navigator is the part of the router controller input needs.
type Navigator interface {
	GoBack(ctx context.Context, region string) *router.Request
	Clear(ctx context.Context, region string, keepRoot bool) *router.Request
}

// Bindings maps virtual buttons to actions.
type Bindings map[constants.VirtualButton]Action

// DefaultBindings binds B to back and Menu to home.
func DefaultBindings() Bindings {
	return Bindings{
		constants.VirtualButtonB:    ActionBack,
		constants.VirtualButtonMenu: ActionHome,
	}
}

// ParseBindings reads a button-name to action-name table, such as the
// [bindings] section of a config file, on top of DefaultBindings.
func ParseBindings(raw map[string]string) (Bindings, error) {
	b := DefaultBindings()
	for buttonName, actionName := range raw {
		button, ok := ButtonByName(buttonName)
		if !ok {
			return nil, fmt.Errorf("input: unknown button %q", buttonName)
		}
		action, err := ParseAction(actionName)
		if err != nil {
			return nil, err
		}
		if action == ActionNone {
			delete(b, button)
			continue
		}
		b[button] = action
	}
	return b, nil
}

// ButtonByName finds a virtual button by its GetName, ignoring case.
func ButtonByName(name string) (constants.VirtualButton, bool) {
	for vb := constants.VirtualButtonUp; vb <= constants.VirtualButtonPower; vb++ {
		if strings.EqualFold(vb.GetName(), strings.TrimSpace(name)) {
			return vb, true
		}
	}
	return constants.VirtualButtonUnassigned, false
}

// Dispatch performs the action bound to button against region. It returns
// the submitted request, or nil when the button is unbound. It never waits,
// so it is safe to call from an SDL or evdev event loop.
func (b Bindings) Dispatch(ctx context.Context, nav Navigator, region string, button constants.VirtualButton) *router.Request {
	switch b[button] {
	case ActionBack:
		return nav.GoBack(ctx, region)
	case ActionHome:
		return nav.Clear(ctx, region, true)
	case ActionClear:
		return nav.Clear(ctx, region, false)
	default:
		return nil
	}
}

// Dispatcher routes every button press to one region and logs failures.
type Dispatcher struct {
	nav      Navigator
	region   string
	bindings Bindings
	log      *slog.Logger

	mu    sync.Mutex
	delay time.Duration
	last  map[constants.VirtualButton]time.Time
}

func NewDispatcher(nav Navigator, region string, bindings Bindings, log *slog.Logger) *Dispatcher {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		nav:      nav,
		region:   region,
		bindings: bindings,
		log:      log,
		delay:    constants.DefaultInputDelay,
		last:     make(map[constants.VirtualButton]time.Time),
	}
}

// SetDelay changes the debounce window. Zero disables debouncing.
func (d *Dispatcher) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// bounced reports whether button was already pressed within the debounce
// window, and records the press otherwise.
func (d *Dispatcher) bounced(button constants.VirtualButton) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.last[button]; ok && now.Sub(last) < d.delay {
		return true
	}
	d.last[button] = now
	return false
}

// Press handles one button press. Results are logged from a separate
// goroutine once the request settles.
func (d *Dispatcher) Press(ctx context.Context, button constants.VirtualButton) *router.Request {
	if d.bounced(button) {
		d.log.Debug("Debounced button", "button", button.GetName())
		return nil
	}

	req := d.bindings.Dispatch(ctx, d.nav, d.region, button)
	if req == nil {
		d.log.Debug("Unbound button", "button", button.GetName())
		return nil
	}

	go func() {
		// Wait also returns when the loop closes with the request still queued.
		res := req.Wait(context.Background())
		if res.Err != nil && !router.IsEmptyStack(res.Err) && !errors.Is(res.Err, router.ErrClosed) {
			d.log.Warn("Button navigation failed",
				"button", button.GetName(),
				"region", d.region,
				"error", res.Err)
		}
	}()
	return req
}
