//go:build sdl

package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/config"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/input"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/platform/sdlhost"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
	"github.com/veandco/go-sdl2/sdl"
)

func (v *demoView) Render(renderer *sdl.Renderer, bounds sdl.Rect) error {
	c := uint32(0x336699)
	if v.color != 0 {
		c = v.color
	}
	if err := renderer.SetDrawColor(uint8(c>>16), uint8(c>>8), uint8(c), 0xFF); err != nil {
		return err
	}
	return renderer.FillRect(&bounds)
}

// runWindowed plays the script while an SDL window shows the regions. The
// UI loop is drained on the SDL main thread once per frame; regions stack
// vertically in declaration order.
func runWindowed(ctx context.Context, cfg config.Config, script *Script, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newApp(cfg, script, out)
	if err != nil {
		return err
	}
	log := prosciutto.GetLogger()

	opts, err := sdlhost.ParseWindowOptions(cfg.Window.Flags)
	if err != nil {
		return err
	}

	var runErr error
	sdl.Main(func() {
		var (
			controllers []*sdl.GameController
			window      *sdlhost.Window
		)
		sdl.Do(func() {
			controllers, err = sdlhost.Init(log)
			if err != nil {
				return
			}
			window, err = sdlhost.OpenWindow(cfg.Window.Title, opts, log)
			if err != nil {
				sdlhost.Quit(controllers)
			}
		})
		if err != nil {
			runErr = prosciutto.NewInfrastructureError("open_window", err)
			return
		}
		defer sdl.Do(func() {
			window.Close()
			sdlhost.Quit(controllers)
		})

		screen := sdlhost.NewScreen(window, log)
		full := window.Bounds()
		slice := full.H / int32(len(cfg.Regions))
		hosts := make(map[string]router.Host, len(cfg.Regions))
		for i, r := range cfg.Regions {
			hosts[r.Name] = screen.NewHost(r.Name, sdl.Rect{X: 0, Y: int32(i) * slice, W: full.W, H: slice})
		}

		pumpCtx, stopPump := context.WithCancel(ctx)
		defer stopPump()

		dispatcher := input.NewDispatcher(app.Controller, cfg.Regions[0].Name, app.Bindings, log)
		app.StartInput(pumpCtx, cfg.Regions[0].Name)

		scriptDone := make(chan error, 1)
		go func() {
			defer stopPump()
			if err := app.AddRegions(hosts); err != nil {
				scriptDone <- err
				return
			}
			p := newPlayer(app, out)
			playErr := p.play(pumpCtx, script.Steps)
			<-pumpCtx.Done()
			scriptDone <- errors.Join(playErr, app.Close())
		}()

		pumpErr := sdlhost.Pump(pumpCtx, screen, app.Loop, func(b constants.VirtualButton) {
			dispatcher.Press(pumpCtx, b)
		})
		if pumpErr != nil && !errors.Is(pumpErr, context.Canceled) {
			runErr = pumpErr
		}
		stopPump()

		// Teardown still runs on the loop, so keep draining until the
		// script goroutine has closed the app.
		for {
			select {
			case err := <-scriptDone:
				runErr = errors.Join(runErr, err)
				return
			case <-time.After(frameInterval):
				sdl.Do(func() { app.Loop.Drain() })
			}
		}
	})
	return runErr
}

const frameInterval = 16 * time.Millisecond
