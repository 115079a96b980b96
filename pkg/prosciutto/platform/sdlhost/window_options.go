package sdlhost

import (
	"fmt"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
)

// WindowOptions maps to SDL window creation flags.
type WindowOptions struct {
	Borderless        bool // Remove window decorations (SDL_WINDOW_BORDERLESS)
	Resizable         bool // Allow window resizing (SDL_WINDOW_RESIZABLE)
	Fullscreen        bool // Fullscreen mode (SDL_WINDOW_FULLSCREEN)
	FullscreenDesktop bool // Fullscreen at desktop resolution (SDL_WINDOW_FULLSCREEN_DESKTOP)
	AlwaysOnTop       bool // Window stays above others (SDL_WINDOW_ALWAYS_ON_TOP)
	Hidden            bool // Start hidden (omits SDL_WINDOW_SHOWN)
}

func (wo WindowOptions) IsZero() bool {
	return wo == WindowOptions{}
}

// ParseWindowOptions builds options from config flag names such as
// "borderless" or "fullscreen_desktop".
func ParseWindowOptions(flags []string) (WindowOptions, error) {
	var wo WindowOptions
	for _, raw := range flags {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "borderless":
			wo.Borderless = true
		case "resizable":
			wo.Resizable = true
		case "fullscreen":
			wo.Fullscreen = true
		case "fullscreen_desktop":
			wo.FullscreenDesktop = true
		case "always_on_top":
			wo.AlwaysOnTop = true
		case "hidden":
			wo.Hidden = true
		default:
			return WindowOptions{}, fmt.Errorf("sdlhost: unknown window flag %q", raw)
		}
	}
	return wo, nil
}

func (wo WindowOptions) ToSDLFlags() uint32 {
	flags := []struct {
		set  bool
		flag uint32
	}{
		{!wo.Hidden, sdl.WINDOW_SHOWN},
		{wo.Resizable, sdl.WINDOW_RESIZABLE},
		{wo.Borderless, sdl.WINDOW_BORDERLESS},
		{wo.Fullscreen, sdl.WINDOW_FULLSCREEN},
		{wo.FullscreenDesktop, sdl.WINDOW_FULLSCREEN_DESKTOP},
		{wo.AlwaysOnTop, sdl.WINDOW_ALWAYS_ON_TOP},
	}

	var out uint32
	for _, f := range flags {
		if f.set {
			out |= f.flag
		}
	}
	return out
}
