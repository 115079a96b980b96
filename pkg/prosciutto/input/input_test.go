package input

import (
	"context"
	"testing"
	"time"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type call struct {
	op       string
	region   string
	keepRoot bool
}

type recordingNavigator struct {
	calls []call
}

func (n *recordingNavigator) GoBack(_ context.Context, region string) *router.Request {
	n.calls = append(n.calls, call{op: "back", region: region})
	return nil
}

func (n *recordingNavigator) Clear(_ context.Context, region string, keepRoot bool) *router.Request {
	n.calls = append(n.calls, call{op: "clear", region: region, keepRoot: keepRoot})
	return nil
}

func TestBindingsDispatch(t *testing.T) {
	b := DefaultBindings()
	b[constants.VirtualButtonSelect] = ActionClear

	nav := &recordingNavigator{}
	ctx := context.Background()

	b.Dispatch(ctx, nav, "main", constants.VirtualButtonB)
	b.Dispatch(ctx, nav, "main", constants.VirtualButtonMenu)
	b.Dispatch(ctx, nav, "side", constants.VirtualButtonSelect)
	b.Dispatch(ctx, nav, "main", constants.VirtualButtonA)

	assert.Equal(t, []call{
		{op: "back", region: "main"},
		{op: "clear", region: "main", keepRoot: true},
		{op: "clear", region: "side", keepRoot: false},
	}, nav.calls)
}

func TestParseBindings(t *testing.T) {
	b, err := ParseBindings(map[string]string{
		"select": "back",
		"menu":   "none",
		"Start":  "Home",
	})
	require.NoError(t, err)

	assert.Equal(t, ActionBack, b[constants.VirtualButtonB])
	assert.Equal(t, ActionBack, b[constants.VirtualButtonSelect])
	assert.Equal(t, ActionHome, b[constants.VirtualButtonStart])
	_, bound := b[constants.VirtualButtonMenu]
	assert.False(t, bound)

	_, err = ParseBindings(map[string]string{"turbo": "back"})
	assert.Error(t, err)

	_, err = ParseBindings(map[string]string{"B": "explode"})
	assert.Error(t, err)
}

func TestButtonByName(t *testing.T) {
	vb, ok := ButtonByName("volumeup")
	require.True(t, ok)
	assert.Equal(t, constants.VirtualButtonVolumeUp, vb)

	_, ok = ButtonByName("Unassigned")
	assert.False(t, ok)
}

func TestEvdevButtonFor(t *testing.T) {
	src := NewEvdevSource("/dev/null", nil, nil)

	tests := []struct {
		name string
		ev   *evdev.InputEvent
		want constants.VirtualButton
	}{
		{"escape down", &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_ESC, Value: 1}, constants.VirtualButtonB},
		{"east face button", &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_EAST, Value: 1}, constants.VirtualButtonB},
		{"power", &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_POWER, Value: 1}, constants.VirtualButtonPower},
		{"release ignored", &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_ESC, Value: 0}, constants.VirtualButtonUnassigned},
		{"autorepeat ignored", &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_ESC, Value: 2}, constants.VirtualButtonUnassigned},
		{"unknown code", &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_F24, Value: 1}, constants.VirtualButtonUnassigned},
		{"not a key event", &evdev.InputEvent{Type: evdev.EV_ABS, Code: evdev.ABS_X, Value: 1}, constants.VirtualButtonUnassigned},
		{"nil", nil, constants.VirtualButtonUnassigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, src.ButtonFor(tt.ev))
		})
	}
}

func TestEvdevCustomCodes(t *testing.T) {
	src := NewEvdevSource("/dev/null", map[evdev.EvCode]constants.VirtualButton{
		evdev.KEY_F24: constants.VirtualButtonF1,
	}, nil)

	ev := &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_F24, Value: 1}
	assert.Equal(t, constants.VirtualButtonF1, src.ButtonFor(ev))

	ev.Code = evdev.KEY_ESC
	assert.Equal(t, constants.VirtualButtonUnassigned, src.ButtonFor(ev))
}

func TestDispatcherPressGoesBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := router.NewLoop(nil)
	go loop.Run(ctx)

	reg := router.NewRegistry()
	for _, key := range []router.Key{"home", "settings"} {
		require.NoError(t, reg.Register(key, func(context.Context) (router.View, error) {
			return string(key), nil
		}, nil))
	}

	ctrl := router.New(reg, loop)
	defer ctrl.Close()
	require.NoError(t, ctrl.AddRegion("main", nil, router.RegionOptions{}))

	require.True(t, ctrl.NavigateTo(ctx, "main", "home", nil).OK())
	require.True(t, ctrl.NavigateTo(ctx, "main", "settings", nil).OK())

	d := NewDispatcher(ctrl, "main", nil, nil)
	req := d.Press(ctx, constants.VirtualButtonB)
	require.NotNil(t, req)
	res := req.Wait(ctx)
	require.True(t, res.OK(), "back failed: %v", res.Err)

	depth, err := ctrl.Depth("main")
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	assert.Nil(t, d.Press(ctx, constants.VirtualButtonX))
}

func TestDispatcherDebounce(t *testing.T) {
	nav := &recordingNavigator{}
	d := NewDispatcher(nav, "main", nil, nil)
	d.SetDelay(time.Hour)

	ctx := context.Background()
	d.Press(ctx, constants.VirtualButtonB)
	d.Press(ctx, constants.VirtualButtonB)
	d.Press(ctx, constants.VirtualButtonMenu)
	assert.Equal(t, []call{
		{op: "back", region: "main"},
		{op: "clear", region: "main", keepRoot: true},
	}, nav.calls)

	d.SetDelay(0)
	d.Press(ctx, constants.VirtualButtonB)
	assert.Len(t, nav.calls, 3)
}

func TestDispatcherPressAfterLoopClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := router.NewLoop(nil)
	ctrl := router.New(router.NewRegistry(), loop)
	d := NewDispatcher(ctrl, "main", nil, nil)

	req := d.Press(context.Background(), constants.VirtualButtonB)
	require.NotNil(t, req)
	assert.Equal(t, router.RequestRequested, req.State())

	// Closing drops the queued task, so the request is never scheduled.
	loop.Close()

	res := req.Wait(context.Background())
	assert.Equal(t, router.KindClosed, res.Kind)
	assert.ErrorIs(t, res.Err, router.ErrClosed)
}
