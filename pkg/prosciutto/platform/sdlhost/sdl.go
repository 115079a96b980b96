package sdlhost

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
	"github.com/veandco/go-sdl2/sdl"
)

// Init starts the SDL subsystems and opens every attached game controller.
func Init(log *slog.Logger) ([]*sdl.GameController, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_GAMECONTROLLER | sdl.INIT_JOYSTICK); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	var controllers []*sdl.GameController
	for i := 0; i < sdl.NumJoysticks(); i++ {
		if !sdl.IsGameController(i) {
			continue
		}
		if c := sdl.GameControllerOpen(i); c != nil {
			controllers = append(controllers, c)
			log.Debug("Opened game controller", "index", i, "name", c.Name())
		}
	}
	return controllers, nil
}

// Quit closes controllers and shuts SDL down.
func Quit(controllers []*sdl.GameController) {
	for _, c := range controllers {
		c.Close()
	}
	sdl.Quit()
}

// ButtonForKey maps a keyboard key to a virtual button.
func ButtonForKey(key sdl.Keycode) constants.VirtualButton {
	switch key {
	case sdl.K_ESCAPE, sdl.K_BACKSPACE:
		return constants.VirtualButtonB
	case sdl.K_RETURN, sdl.K_SPACE:
		return constants.VirtualButtonA
	case sdl.K_UP:
		return constants.VirtualButtonUp
	case sdl.K_DOWN:
		return constants.VirtualButtonDown
	case sdl.K_LEFT:
		return constants.VirtualButtonLeft
	case sdl.K_RIGHT:
		return constants.VirtualButtonRight
	case sdl.K_HOME:
		return constants.VirtualButtonMenu
	case sdl.K_TAB:
		return constants.VirtualButtonSelect
	default:
		return constants.VirtualButtonUnassigned
	}
}

// ButtonForController maps a game controller button to a virtual button.
func ButtonForController(button sdl.GameControllerButton) constants.VirtualButton {
	switch button {
	case sdl.CONTROLLER_BUTTON_A:
		return constants.VirtualButtonA
	case sdl.CONTROLLER_BUTTON_B:
		return constants.VirtualButtonB
	case sdl.CONTROLLER_BUTTON_X:
		return constants.VirtualButtonX
	case sdl.CONTROLLER_BUTTON_Y:
		return constants.VirtualButtonY
	case sdl.CONTROLLER_BUTTON_DPAD_UP:
		return constants.VirtualButtonUp
	case sdl.CONTROLLER_BUTTON_DPAD_DOWN:
		return constants.VirtualButtonDown
	case sdl.CONTROLLER_BUTTON_DPAD_LEFT:
		return constants.VirtualButtonLeft
	case sdl.CONTROLLER_BUTTON_DPAD_RIGHT:
		return constants.VirtualButtonRight
	case sdl.CONTROLLER_BUTTON_START:
		return constants.VirtualButtonStart
	case sdl.CONTROLLER_BUTTON_BACK:
		return constants.VirtualButtonSelect
	case sdl.CONTROLLER_BUTTON_GUIDE:
		return constants.VirtualButtonMenu
	default:
		return constants.VirtualButtonUnassigned
	}
}

// Pump drives one frame per iteration on the SDL main thread: poll events,
// drain the UI loop, draw. It returns when ctx ends, the window is closed
// or the loop shuts down. Call it from inside sdl.Main.
func Pump(ctx context.Context, screen *Screen, loop *router.Loop, onButton func(constants.VirtualButton)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-loop.Done():
			return nil
		default:
		}

		quit := false
		var pressed []constants.VirtualButton

		sdl.Do(func() {
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch e := event.(type) {
				case *sdl.QuitEvent:
					quit = true
				case *sdl.KeyboardEvent:
					if e.State == sdl.PRESSED && e.Repeat == 0 {
						pressed = append(pressed, ButtonForKey(e.Keysym.Sym))
					}
				case *sdl.ControllerButtonEvent:
					if e.State == sdl.PRESSED {
						pressed = append(pressed, ButtonForController(sdl.GameControllerButton(e.Button)))
					}
				}
			}

			loop.Drain()
			screen.Frame()
		})

		if quit {
			return nil
		}
		if onButton == nil {
			continue
		}
		for _, b := range pressed {
			if b != constants.VirtualButtonUnassigned {
				onButton(b)
			}
		}
	}
}
