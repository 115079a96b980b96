// Package prosciutto is a view-model-first navigation host for embedded
// Linux handhelds. Applications register view/view-model pairs under keys,
// declare named regions, and ask the router to navigate; prosciutto keeps
// a back-stack per region, runs lifecycle hooks on a single UI loop and
// attaches views to whatever host renders them.
//
// The package wires configuration, logging, resources, input and the router
// together. Use the router package directly for finer control.
package prosciutto

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/config"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/input"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/internal"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/platform/cannoli"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/resources"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
)

const iconCacheSize = 64

// Options configures an App.
type Options struct {
	Config   config.Config    // Zero value loads config.Default
	Registry *router.Registry // Destinations; a fresh registry when nil
	Logger   *slog.Logger     // Logger for the router; the internal logger when nil

	// MessageFiles are extra go-i18n TOML files loaded after the embedded ones.
	MessageFiles []string
}

// App bundles the pieces an application needs to navigate.
type App struct {
	Config     config.Config
	Loop       *router.Loop
	Registry   *router.Registry
	Controller *router.Controller
	Localizer  *resources.Localizer
	Icons      *resources.SVGProvider
	Resources  resources.Chain
	Bindings   input.Bindings

	log *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// New applies the config's logging and theme settings, builds the
// resource chain and creates the controller. The UI loop is not started;
// call Start, or drain App.Loop from a host event loop and call AddRegions.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg.Regions == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewInfrastructureError("validate_config", err)
	}

	configureLogging(cfg)
	configureTheme(cfg)

	log := opts.Logger
	if log == nil {
		log = internal.GetInternalLogger()
	}

	localizer, err := resources.NewLocalizer(cfg.Languages...)
	if err != nil {
		return nil, NewInfrastructureError("load_messages", err)
	}
	for _, file := range opts.MessageFiles {
		if err := localizer.LoadMessageFile(file); err != nil {
			return nil, NewInfrastructureError("load_messages", err)
		}
	}

	icons, err := resources.NewSVGProvider(cfg.IconSize, iconCacheSize)
	if err != nil {
		return nil, NewInfrastructureError("load_icons", err)
	}

	bindings, err := input.ParseBindings(cfg.Input.Bindings)
	if err != nil {
		return nil, NewInfrastructureError("parse_bindings", err)
	}

	chain := resources.Chain{
		resources.NewGlyphProvider(nil),
		localizer,
		icons,
	}

	registry := opts.Registry
	if registry == nil {
		registry = router.NewRegistry()
	}

	var animation router.Animation = router.NoAnimation{}
	if cfg.TransitionDuration.Duration > 0 {
		animation = router.FixedAnimation(cfg.TransitionDuration.Duration)
	}

	loop := router.NewLoop(log)
	ctrl := router.New(registry, loop,
		router.WithLogger(log),
		router.WithAnimation(animation),
		router.WithResources(chain),
		router.WithDebug(cfg.Debug),
	)

	return &App{
		Config:     cfg,
		Loop:       loop,
		Registry:   registry,
		Controller: ctrl,
		Localizer:  localizer,
		Icons:      icons,
		Resources:  chain,
		Bindings:   bindings,
		log:        log,
	}, nil
}

// AddRegions creates every configured region. It needs the loop to be
// consuming tasks, so call it after Start or from a goroutine while the host
// drains the loop.
func (a *App) AddRegions(hosts map[string]router.Host) error {
	for _, r := range a.Config.Regions {
		if err := a.Controller.AddRegion(r.Name, hosts[r.Name], router.RegionOptions{MaxDepth: r.MaxDepth}); err != nil {
			return NewInfrastructureError("add_region", err)
		}
	}
	return nil
}

// Start runs the UI loop on its own goroutine, creates the configured
// regions and starts one evdev reader per configured input device. Button
// presses go to region.
func (a *App) Start(ctx context.Context, hosts map[string]router.Host, region string) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.running.Add(1)
	go func() {
		defer a.running.Done()
		if err := a.Loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("UI loop stopped", "error", err)
		}
	}()

	if err := a.AddRegions(hosts); err != nil {
		return err
	}

	a.StartInput(ctx, region)
	return nil
}

// StartInput reads every configured evdev device until ctx ends.
func (a *App) StartInput(ctx context.Context, region string) {
	if len(a.Config.Input.Devices) == 0 {
		return
	}

	dispatcher := input.NewDispatcher(a.Controller, region, a.Bindings, a.log)
	for _, path := range a.Config.Input.Devices {
		src := input.NewEvdevSource(path, nil, a.log)
		a.running.Add(1)
		go func() {
			defer a.running.Done()
			err := src.Run(ctx, func(b constants.VirtualButton) {
				dispatcher.Press(ctx, b)
			})
			if err != nil && ctx.Err() == nil {
				a.log.Error("Input device stopped", "path", path, "error", err)
			}
		}()
	}
}

// Close tears the regions down, stops the loop and input readers, and
// closes the log file. Without Start, the host must still be draining the
// loop when Close is called.
func (a *App) Close() error {
	err := a.Controller.Close()

	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	} else {
		a.Loop.Close()
	}
	a.running.Wait()

	internal.CloseLogger()
	return err
}

func configureLogging(cfg config.Config) {
	if cfg.Logging.Path != "" {
		internal.SetLogPath(cfg.Logging.Path)
	}
	internal.SetRawLogLevel(cfg.Logging.Level)
	if cfg.Debug {
		internal.SetInternalLogLevel(slog.LevelDebug)
	} else {
		internal.SetInternalLogLevel(internal.ParseLevel(cfg.Logging.Level))
	}
}

func configureTheme(cfg config.Config) {
	fontPath := cfg.Theme.FontPath
	if fontPath == "" {
		fontPath = cannoli.DefaultFontPath
	}
	theme := cannoli.InitCannoliTheme(fontPath)

	if cfg.Theme.Accent != 0 {
		theme.AccentColor = internal.HexToColor(cfg.Theme.Accent)
	}
	if cfg.Theme.Background != 0 {
		theme.BackgroundColor = internal.HexToColor(cfg.Theme.Background)
	}
	internal.SetTheme(theme)
}

// GetLogger returns the application logger for structured logging.
func GetLogger() *slog.Logger {
	return internal.GetLogger()
}

// SetLogPath sets the full path for the log file, including filename.
// Call before New to take effect.
func SetLogPath(path string) {
	internal.SetLogPath(path)
}

// SetLogOutput sends logs to w instead of stdout. Call before New.
func SetLogOutput(w io.Writer) {
	internal.SetLogOutput(w)
}

// SetLogLevel sets the minimum log level for the application logger.
func SetLogLevel(level slog.Level) {
	internal.SetLogLevel(level)
}

// SetRawLogLevel parses and sets the log level from a string (e.g., "debug", "info", "error").
func SetRawLogLevel(level string) {
	internal.SetRawLogLevel(level)
}
