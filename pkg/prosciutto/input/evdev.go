package input

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/holoplot/go-evdev"
)

const keyPressed = 1

// DefaultEvdevCodes covers handheld face buttons, the d-pad and the
// keyboard keys most devices expose for back and home.
var DefaultEvdevCodes = map[evdev.EvCode]constants.VirtualButton{
	evdev.KEY_ESC:        constants.VirtualButtonB,
	evdev.KEY_BACKSPACE:  constants.VirtualButtonB,
	evdev.KEY_BACK:       constants.VirtualButtonB,
	evdev.KEY_HOMEPAGE:   constants.VirtualButtonMenu,
	evdev.KEY_ENTER:      constants.VirtualButtonA,
	evdev.KEY_UP:         constants.VirtualButtonUp,
	evdev.KEY_DOWN:       constants.VirtualButtonDown,
	evdev.KEY_LEFT:       constants.VirtualButtonLeft,
	evdev.KEY_RIGHT:      constants.VirtualButtonRight,
	evdev.KEY_POWER:      constants.VirtualButtonPower,
	evdev.KEY_VOLUMEUP:   constants.VirtualButtonVolumeUp,
	evdev.KEY_VOLUMEDOWN: constants.VirtualButtonVolumeDown,
	evdev.BTN_SOUTH:      constants.VirtualButtonA,
	evdev.BTN_EAST:       constants.VirtualButtonB,
	evdev.BTN_NORTH:      constants.VirtualButtonX,
	evdev.BTN_WEST:       constants.VirtualButtonY,
	evdev.BTN_START:      constants.VirtualButtonStart,
	evdev.BTN_SELECT:     constants.VirtualButtonSelect,
	evdev.BTN_MODE:       constants.VirtualButtonMenu,
}

// EvdevSource reads key presses from a Linux input device.
type EvdevSource struct {
	path  string
	codes map[evdev.EvCode]constants.VirtualButton
	log   *slog.Logger
}

// NewEvdevSource reads from path, for example /dev/input/event1. A nil
// codes map uses DefaultEvdevCodes.
func NewEvdevSource(path string, codes map[evdev.EvCode]constants.VirtualButton, log *slog.Logger) *EvdevSource {
	if codes == nil {
		codes = DefaultEvdevCodes
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &EvdevSource{path: path, codes: codes, log: log}
}

// ButtonFor maps an input event to a virtual button. Only key-down events
// of known codes map to anything; releases and autorepeat do not.
func (s *EvdevSource) ButtonFor(ev *evdev.InputEvent) constants.VirtualButton {
	if ev == nil || ev.Type != evdev.EV_KEY || ev.Value != keyPressed {
		return constants.VirtualButtonUnassigned
	}
	if vb, ok := s.codes[ev.Code]; ok {
		return vb
	}
	return constants.VirtualButtonUnassigned
}

// Run opens the device and calls press for every mapped key-down until ctx
// is cancelled or the device goes away.
func (s *EvdevSource) Run(ctx context.Context, press func(constants.VirtualButton)) error {
	dev, err := evdev.Open(s.path)
	if err != nil {
		return fmt.Errorf("input: open %s: %w", s.path, err)
	}

	var closeOnce sync.Once
	closeDev := func() { closeOnce.Do(func() { dev.Close() }) }
	defer closeDev()

	// Closing the device unblocks ReadOne.
	stop := context.AfterFunc(ctx, closeDev)
	defer stop()

	name, _ := dev.Name()
	s.log.Debug("Listening for input", "path", s.path, "device", name)

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("input: read %s: %w", s.path, err)
		}

		if vb := s.ButtonFor(ev); vb != constants.VirtualButtonUnassigned {
			s.log.Debug("Button pressed", "button", vb.GetName(), "code", ev.CodeName())
			press(vb)
		}
	}
}
