// Package sdlhost renders navigation regions into an SDL window and feeds
// keyboard and gamepad presses back as virtual buttons.
package sdlhost

import (
	"image/color"
	"log/slog"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/internal"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
	"github.com/veandco/go-sdl2/sdl"
)

// Renderable is implemented by views that draw themselves.
type Renderable interface {
	Render(renderer *sdl.Renderer, bounds sdl.Rect) error
}

// Host is a router.Host that owns a rectangle of the window. Attach and
// Detach are called on the UI loop, which the pump drains on the SDL thread.
type Host struct {
	name    string
	bounds  sdl.Rect
	current router.View
	log     *slog.Logger
}

func (h *Host) Attach(view router.View) {
	h.current = view
	h.log.Debug("View attached", "region", h.name)
}

func (h *Host) Detach(view router.View) {
	if h.current == view {
		h.current = nil
	}
	h.log.Debug("View detached", "region", h.name)
}

// Current returns the attached view, or nil.
func (h *Host) Current() router.View {
	return h.current
}

func (h *Host) draw(renderer *sdl.Renderer) {
	if h.current == nil {
		return
	}
	if r, ok := h.current.(Renderable); ok {
		if err := r.Render(renderer, h.bounds); err != nil {
			h.log.Error("View render failed", "region", h.name, "error", err)
		}
		return
	}

	// Views without their own renderer get an accent block.
	setDrawColor(renderer, internal.GetTheme().AccentColor)
	renderer.FillRect(&h.bounds)
}

// Screen lays hosts out inside one window and draws them each frame.
type Screen struct {
	window *Window
	hosts  []*Host
	log    *slog.Logger
}

func NewScreen(window *Window, log *slog.Logger) *Screen {
	return &Screen{window: window, log: log}
}

// NewHost creates a host for region drawn inside bounds. A zero rectangle
// means the whole window.
func (s *Screen) NewHost(region string, bounds sdl.Rect) *Host {
	if bounds.W == 0 || bounds.H == 0 {
		bounds = s.window.Bounds()
	}
	h := &Host{name: region, bounds: bounds, log: s.log}
	s.hosts = append(s.hosts, h)
	return h
}

// Frame clears the window with the theme background, draws every host in
// creation order and presents.
func (s *Screen) Frame() {
	renderer := s.window.Renderer
	setDrawColor(renderer, internal.GetTheme().BackgroundColor)
	renderer.Clear()

	for _, h := range s.hosts {
		h.draw(renderer)
	}

	s.window.Present()
}

func setDrawColor(renderer *sdl.Renderer, c color.RGBA) {
	renderer.SetDrawColor(c.R, c.G, c.B, c.A)
}
