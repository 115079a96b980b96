package sdlhost

import (
	"fmt"
	"log/slog"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	devWindowWidth  = 1024
	devWindowHeight = 768
	frameBudgetMs   = 16
)

// Window wraps the SDL window and renderer regions draw into.
type Window struct {
	Window   *sdl.Window
	Renderer *sdl.Renderer
	Title    string

	hasVSync        bool
	lastPresentTime uint64
	log             *slog.Logger
}

// OpenWindow creates a window sized to the current display, or a fixed
// 1024x768 window in dev mode. Must be called from inside sdl.Main.
func OpenWindow(title string, opts WindowOptions, log *slog.Logger) (*Window, error) {
	width, height := int32(devWindowWidth), int32(devWindowHeight)
	x, y := int32(50), int32(50)

	if !constants.IsDevMode() {
		mode, err := sdl.GetCurrentDisplayMode(0)
		if err != nil {
			log.Error("Failed to get display mode", "error", err)
		} else {
			width, height = mode.W, mode.H
		}
		x, y = 0, 0
	} else {
		opts.Borderless = false
	}

	if opts.IsZero() {
		opts = WindowOptions{Resizable: true}
	}

	log.Debug("Initializing SDL window", "width", width, "height", height)

	window, err := sdl.CreateWindow(title, x, y, width, height, opts.ToSDLFlags())
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	renderer.SetLogicalSize(width, height)

	info, err := renderer.GetInfo()
	vsync := err == nil && info.Flags&sdl.RENDERER_PRESENTVSYNC != 0

	return &Window{
		Window:   window,
		Renderer: renderer,
		Title:    title,
		hasVSync: vsync,
		log:      log,
	}, nil
}

// Bounds returns the full drawable area.
func (w *Window) Bounds() sdl.Rect {
	width, height := w.Window.GetSize()
	return sdl.Rect{W: width, H: height}
}

// Present swaps the render buffer and enforces ~60fps frame timing
// when VSync is not available.
func (w *Window) Present() {
	w.Renderer.Present()
	if !w.hasVSync {
		now := sdl.GetTicks64()
		if elapsed := now - w.lastPresentTime; elapsed < frameBudgetMs {
			sdl.Delay(uint32(frameBudgetMs - elapsed))
		}
		w.lastPresentTime = sdl.GetTicks64()
	}
}

func (w *Window) Close() {
	w.Renderer.Destroy()
	w.Window.Destroy()
}
