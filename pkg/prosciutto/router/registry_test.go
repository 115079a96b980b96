package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainView struct{}

type plainVM struct{}

type hookedVM struct{ trackedVM }

func view(name string) ViewFactory {
	return func(context.Context) (View, error) { return name, nil }
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("home", view("home"), func(context.Context) (any, error) {
		return &trackedVM{name: "home"}, nil
	}, WithTitle("nav.home"), WithIcon("icon.home")))

	assert.True(t, reg.Has("home"))
	assert.False(t, reg.Has("away"))
	assert.Equal(t, 1, reg.Len())

	resolved, err := reg.Resolve(context.Background(), "home")
	require.NoError(t, err)
	assert.Equal(t, "home", resolved.View)
	assert.Equal(t, "nav.home", resolved.Title)
	assert.Equal(t, "icon.home", resolved.Icon)
	assert.Equal(t, Capabilities{HasLifecycleHooks: true, HasParameters: true, Disposable: true}, resolved.Capabilities)

	// Each resolve builds fresh instances.
	again, err := reg.Resolve(context.Background(), "home")
	require.NoError(t, err)
	assert.NotSame(t, resolved.ViewModel, again.ViewModel)
}

func TestRegistryDuplicateKey(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("home", view("home"), nil))

	err := reg.Register("home", view("other"), nil)
	assert.True(t, IsDuplicateKey(err))

	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, Key("home"), dup.Key)

	resolved, err := reg.Resolve(context.Background(), "home")
	require.NoError(t, err)
	assert.Equal(t, "home", resolved.View, "first registration wins")
}

func TestRegistryInvalidRegistration(t *testing.T) {
	reg := NewRegistry()

	assert.ErrorIs(t, reg.Register("", view("x"), nil), ErrInvalidRegistration)
	assert.ErrorIs(t, reg.Register("x", nil, nil), ErrInvalidRegistration)
	assert.ErrorIs(t, RegisterPair[*plainView, *plainVM](reg, "y", nil, nil), ErrInvalidRegistration)
	assert.ErrorIs(t, RegisterView[*plainView](reg, "z", nil), ErrInvalidRegistration)
	assert.Zero(t, reg.Len())
}

func TestRegistryUnknownKey(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Resolve(context.Background(), "missing")
	assert.True(t, IsUnknownKey(err))
	assert.Equal(t, KindUnknownKey, KindOf(err))
	assert.EqualError(t, err, `router: key "missing" not registered`)
}

func TestRegisterPairCapabilities(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterPair(reg, "plain", func() *plainView { return &plainView{} },
		func() *plainVM { return &plainVM{} }))
	require.NoError(t, RegisterPair(reg, "hooked", func() *plainView { return &plainView{} },
		func() *hookedVM { return &hookedVM{trackedVM{name: "hooked", j: &journal{}}} }))

	plain, err := reg.Resolve(context.Background(), "plain")
	require.NoError(t, err)
	assert.Equal(t, Capabilities{}, plain.Capabilities)
	assert.IsType(t, &plainVM{}, plain.ViewModel)

	hooked, err := reg.Resolve(context.Background(), "hooked")
	require.NoError(t, err)
	assert.True(t, hooked.Capabilities.HasLifecycleHooks)
	assert.True(t, hooked.Capabilities.HasParameters)
	assert.True(t, hooked.Capabilities.Disposable)
}

func TestRegisterViewContentOnly(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterView(reg, "about", func() string { return "about" }))

	resolved, err := reg.Resolve(context.Background(), "about")
	require.NoError(t, err)
	assert.Equal(t, "about", resolved.View)
	assert.Nil(t, resolved.ViewModel)
	assert.Equal(t, Capabilities{}, resolved.Capabilities)
}

func TestRegistryCapabilitiesFromFirstInstance(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	require.NoError(t, reg.Register("dyn", view("dyn"), func(context.Context) (any, error) {
		calls++
		if calls == 1 {
			return &trackedVM{name: "dyn", j: &journal{}}, nil
		}
		return &plainVM{}, nil
	}))

	first, err := reg.Resolve(context.Background(), "dyn")
	require.NoError(t, err)
	assert.True(t, first.Capabilities.HasLifecycleHooks)

	// Capabilities are computed once per registration.
	second, err := reg.Resolve(context.Background(), "dyn")
	require.NoError(t, err)
	assert.Equal(t, first.Capabilities, second.Capabilities)
}

func TestRegistryFactoryErrors(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	require.NoError(t, reg.Register("badview", func(context.Context) (View, error) { return nil, boom }, nil))
	require.NoError(t, reg.Register("badvm", view("badvm"), func(context.Context) (any, error) { return nil, boom }))

	_, err := reg.Resolve(context.Background(), "badview")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "build view")

	_, err = reg.Resolve(context.Background(), "badvm")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "build view-model")
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestRegistryFactoryPanics(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("panicview", func(context.Context) (View, error) { panic("no view") }, nil))
	require.NoError(t, reg.Register("panicvm", view("panicvm"), func(context.Context) (any, error) { panic("no vm") }))

	var err error
	assert.NotPanics(t, func() { _, err = reg.Resolve(context.Background(), "panicview") })
	assert.ErrorContains(t, err, "build view \"panicview\": panic: no view")

	assert.NotPanics(t, func() { _, err = reg.Resolve(context.Background(), "panicvm") })
	assert.ErrorContains(t, err, "panic: no vm")
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestRegistrySkipsViewModelWhenCancelled(t *testing.T) {
	reg := NewRegistry()
	called := false
	require.NoError(t, reg.Register("home", view("home"), func(context.Context) (any, error) {
		called = true
		return &plainVM{}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.Resolve(ctx, "home")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRegistryKeys(t *testing.T) {
	reg := NewRegistry()
	for _, k := range []Key{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(k, view(string(k)), nil))
	}
	assert.Equal(t, []Key{"alpha", "mid", "zeta"}, reg.Keys())
}

func TestTypeKey(t *testing.T) {
	assert.Equal(t, Key("*router.plainVM"), TypeKey[*plainVM]())
	assert.NotEqual(t, TypeKey[plainVM](), TypeKey[*plainVM]())
}
