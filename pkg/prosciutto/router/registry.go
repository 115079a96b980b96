package router

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// ViewFactory builds the view for a destination.
type ViewFactory func(ctx context.Context) (View, error)

// ViewModelFactory builds the view-model paired with a view. The context is
// cancelled if the navigation that asked for it is superseded or cancelled.
type ViewModelFactory func(ctx context.Context) (any, error)

// Capabilities records which optional view-model interfaces a registration
// supports. It is computed once per registration, never per navigation.
type Capabilities struct {
	HasLifecycleHooks bool // implements Lifecycle
	HasParameters     bool // implements ParameterReceiver
	Disposable        bool // implements Disposer
}

var (
	lifecycleType = reflect.TypeFor[Lifecycle]()
	parameterType = reflect.TypeFor[ParameterReceiver]()
	disposerType  = reflect.TypeFor[Disposer]()
)

func capabilitiesOf(t reflect.Type) Capabilities {
	if t == nil {
		return Capabilities{}
	}
	return Capabilities{
		HasLifecycleHooks: t.Implements(lifecycleType),
		HasParameters:     t.Implements(parameterType),
		Disposable:        t.Implements(disposerType),
	}
}

// Resolved is the product of a registry lookup.
type Resolved struct {
	View         View
	ViewModel    any // nil for content-only destinations
	Capabilities Capabilities
	Title        string // title resource key from WithTitle
	Icon         string // icon resource key from WithIcon
}

// RegisterOption customizes a registration.
type RegisterOption func(*registration)

// WithTitle attaches a title resource key that is resolved through the
// controller's resource provider whenever an entry is created.
func WithTitle(resourceKey string) RegisterOption {
	return func(r *registration) {
		r.title = resourceKey
	}
}

// WithIcon attaches an icon resource key, resolved like WithTitle.
func WithIcon(resourceKey string) RegisterOption {
	return func(r *registration) {
		r.icon = resourceKey
	}
}

type registration struct {
	key       Key
	view      ViewFactory
	viewModel ViewModelFactory
	title     string
	icon      string

	capsMu    sync.Mutex
	capsKnown bool
	caps      Capabilities
}

// capabilities returns the cached capabilities, deriving them from the first
// non-nil view-model when the registration did not know its type.
func (r *registration) capabilities(vm any) Capabilities {
	r.capsMu.Lock()
	defer r.capsMu.Unlock()

	if !r.capsKnown && vm != nil {
		r.caps = capabilitiesOf(reflect.TypeOf(vm))
		r.capsKnown = true
	}
	return r.caps
}

// Registry maps keys to view and view-model factories. It is read-mostly
// after startup and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]*registration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key]*registration),
	}
}

// Register stores the factories for key. viewModel may be nil for
// content-only destinations. Registering the same key twice fails with a
// DuplicateKeyError.
func (r *Registry) Register(key Key, view ViewFactory, viewModel ViewModelFactory, opts ...RegisterOption) error {
	return r.register(&registration{key: key, view: view, viewModel: viewModel}, opts)
}

func (r *Registry) register(reg *registration, opts []RegisterOption) error {
	if reg.key == "" || reg.view == nil {
		return fmt.Errorf("%w: key=%q", ErrInvalidRegistration, reg.key)
	}

	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[reg.key]; exists {
		return &DuplicateKeyError{Key: reg.key}
	}
	r.entries[reg.key] = reg
	return nil
}

// RegisterPair registers a view and a typed view-model. Capabilities are taken
// from VM's method set at registration time.
func RegisterPair[V any, VM any](r *Registry, key Key, newView func() V, newViewModel func() VM, opts ...RegisterOption) error {
	if newView == nil || newViewModel == nil {
		return fmt.Errorf("%w: key=%q", ErrInvalidRegistration, key)
	}

	reg := &registration{
		key: key,
		view: func(context.Context) (View, error) {
			return newView(), nil
		},
		viewModel: func(context.Context) (any, error) {
			return newViewModel(), nil
		},
	}
	reg.caps = capabilitiesOf(reflect.TypeFor[VM]())
	reg.capsKnown = true

	return r.register(reg, opts)
}

// RegisterView registers a content-only destination.
func RegisterView[V any](r *Registry, key Key, newView func() V, opts ...RegisterOption) error {
	if newView == nil {
		return fmt.Errorf("%w: key=%q", ErrInvalidRegistration, key)
	}

	return r.register(&registration{
		key: key,
		view: func(context.Context) (View, error) {
			return newView(), nil
		},
	}, opts)
}

// TypeKey derives a Key from a Go type, for applications that prefer type
// tokens over string constants.
func TypeKey[T any]() Key {
	return Key(reflect.TypeFor[T]().String())
}

// Resolve invokes the factories registered for key.
func (r *Registry) Resolve(ctx context.Context, key Key) (Resolved, error) {
	r.mu.RLock()
	reg, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok {
		return Resolved{}, &UnknownKeyError{Key: key}
	}

	view, err := build(ctx, reg.view)
	if err != nil {
		return Resolved{}, fmt.Errorf("router: build view %q: %w", key, err)
	}

	resolved := Resolved{
		View:  view,
		Title: reg.title,
		Icon:  reg.icon,
	}

	if reg.viewModel == nil {
		return resolved, nil
	}

	if err := ctx.Err(); err != nil {
		return Resolved{}, err
	}

	vm, err := build(ctx, reg.viewModel)
	if err != nil {
		return Resolved{}, fmt.Errorf("router: build view-model %q: %w", key, err)
	}

	resolved.ViewModel = vm
	resolved.Capabilities = reg.capabilities(vm)
	return resolved, nil
}

// build runs a factory, turning a panic into an error.
func build[T any](ctx context.Context, factory func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return factory(ctx)
}

// Has reports whether key is registered.
func (r *Registry) Has(key Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
