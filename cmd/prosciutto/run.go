package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/config"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/input"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		scriptPath string
		window     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a navigation script",
		Long: `Registers the screens declared by a script and plays its steps against
the router, printing every lifecycle call, attach, detach and result.
With --window the regions are drawn in an SDL window.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			script, err := loadScript(scriptPath)
			if err != nil {
				return err
			}

			out := &syncWriter{w: cmd.OutOrStdout()}
			if window {
				return runWindowed(cmd.Context(), cfg, script, out)
			}
			return runHeadless(cmd.Context(), cfg, script, out)
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "Path to the navigation script (TOML)")
	cmd.Flags().BoolVar(&window, "window", false, "Draw regions in an SDL window")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func newApp(cfg config.Config, script *Script, out io.Writer) (*prosciutto.App, error) {
	reg := router.NewRegistry()
	if err := script.register(reg, out); err != nil {
		return nil, err
	}
	return prosciutto.New(prosciutto.Options{Config: cfg, Registry: reg})
}

func runHeadless(ctx context.Context, cfg config.Config, script *Script, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newApp(cfg, script, out)
	if err != nil {
		return err
	}

	hosts := make(map[string]router.Host, len(cfg.Regions))
	for _, r := range cfg.Regions {
		hosts[r.Name] = loggingHost{region: r.Name, out: out}
	}
	if err := app.Start(ctx, hosts, cfg.Regions[0].Name); err != nil {
		app.Close()
		return err
	}

	p := newPlayer(app, out)
	runErr := p.play(ctx, script.Steps)
	closeErr := app.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// player executes script steps against an app and prints what happens.
type player struct {
	app     *prosciutto.App
	ctrl    *router.Controller
	out     io.Writer
	pending []*router.Request
}

func newPlayer(app *prosciutto.App, out io.Writer) *player {
	p := &player{app: app, ctrl: app.Controller, out: out}
	p.ctrl.Bus().SubscribeAll(p.printEvent)
	return p
}

func (p *player) play(ctx context.Context, steps []Step) error {
	defaultRegion := p.app.Config.Regions[0].Name

	for i, st := range steps {
		region := st.Region
		if region == "" {
			region = defaultRegion
		}

		fmt.Fprintf(p.out, "step %d: %s\n", i+1, describe(st, region))

		var req *router.Request
		switch st.Action {
		case "navigate":
			mode, _ := parseMode(st.Mode)
			req = p.ctrl.Navigate(ctx, region, router.Key(st.Key), router.Params(st.Params), router.WithMode(mode))
		case "back":
			req = p.ctrl.GoBack(ctx, region)
		case "home":
			req = p.ctrl.Clear(ctx, region, true)
		case "clear":
			req = p.ctrl.Clear(ctx, region, false)
		case "press":
			button, ok := input.ButtonByName(st.Button)
			if !ok {
				return fmt.Errorf("step %d: unknown button %q", i+1, st.Button)
			}
			req = p.app.Bindings.Dispatch(ctx, p.ctrl, region, button)
			if req == nil {
				fmt.Fprintf(p.out, "  %s is not bound\n", button.GetName())
			}
		case "wait":
			time.Sleep(st.Duration.Duration)
		case "settle":
			p.settle(ctx)
		}

		if req == nil {
			continue
		}
		if st.Async {
			p.pending = append(p.pending, req)
			continue
		}
		p.report(req.Wait(ctx))
		p.printStack(region)
	}

	p.settle(ctx)
	return nil
}

func (p *player) settle(ctx context.Context) {
	for _, req := range p.pending {
		p.report(req.Wait(ctx))
	}
	p.pending = nil
}

func (p *player) report(res router.Result) {
	// Events for a request are published in the same loop task that
	// finishes it; a no-op round trip flushes them before the result line.
	_ = p.ctrl.Invoke(func() {})

	line := fmt.Sprintf("  => #%d %s/%s %s", res.Seq, res.Region, res.Key, res.State)
	if res.Err != nil {
		line += ": " + p.failureText(res)
	}
	fmt.Fprintln(p.out, line)
}

func (p *player) failureText(res router.Result) string {
	switch res.Kind {
	case router.KindUnknownKey, router.KindEmptyStack, router.KindActivation:
		if msg, err := p.app.Localizer.Localize("nav.failed."+res.Kind.String(), nil); err == nil {
			return msg
		}
	}
	return res.Err.Error()
}

func (p *player) printStack(region string) {
	history, err := p.ctrl.History(region)
	if err != nil {
		return
	}

	names := make([]string, len(history))
	for i, e := range history {
		names[i] = string(e.Key)
		if e.Title != "" {
			names[i] = fmt.Sprintf("%s(%s)", e.Key, e.Title)
		}
	}

	depth, err := p.app.Localizer.LocalizeCount("nav.depth", len(history))
	if err != nil {
		depth = fmt.Sprint(len(history))
	}
	fmt.Fprintf(p.out, "  [%s] %s | %s\n", region, strings.Join(names, " > "), depth)
}

func (p *player) printEvent(ev router.Event) {
	switch e := ev.(type) {
	case router.SupersededEvent:
		fmt.Fprintf(p.out, "  event %s %s/%s #%d\n", e.EventType(), e.Region, e.Key, e.Seq)
	case router.NavigationFailedEvent:
		fmt.Fprintf(p.out, "  event %s %s/%s %s\n", e.EventType(), e.Region, e.Key, e.Kind)
	case router.NavigatedEvent:
		fmt.Fprintf(p.out, "  event %s %s %s\n", e.EventType(), e.Region, e.Kind)
	}
}

func describe(st Step, region string) string {
	switch st.Action {
	case "navigate":
		mode := st.Mode
		if mode == "" {
			mode = "push"
		}
		return fmt.Sprintf("navigate %s/%s (%s)", region, st.Key, mode)
	case "press":
		return fmt.Sprintf("press %s in %s", st.Button, region)
	case "wait":
		return fmt.Sprintf("wait %s", st.Duration.Duration)
	case "settle":
		return "settle"
	default:
		return fmt.Sprintf("%s %s", st.Action, region)
	}
}
