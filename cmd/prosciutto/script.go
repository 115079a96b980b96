package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/config"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
	"github.com/BurntSushi/toml"
)

// Screen declares a demo destination.
type Screen struct {
	Key              string          `toml:"key"`
	Title            string          `toml:"title"`
	Icon             string          `toml:"icon"`
	Color            uint32          `toml:"color"`
	Delay            config.Duration `toml:"delay"` // view-model construction latency
	FailActivation   bool            `toml:"fail_activation"`
	FailDeactivation bool            `toml:"fail_deactivation"`
}

// Step is one scripted action.
type Step struct {
	Action   string          `toml:"action"` // navigate, back, home, clear, press, wait, settle
	Region   string          `toml:"region"`
	Key      string          `toml:"key"`
	Mode     string          `toml:"mode"` // push, replace, clear
	Params   map[string]any  `toml:"params"`
	Button   string          `toml:"button"`
	Duration config.Duration `toml:"duration"`
	Async    bool            `toml:"async"` // don't wait; collect with "settle"
}

// Script is a navigation scenario.
type Script struct {
	Screens []Screen `toml:"screen"`
	Steps   []Step   `toml:"step"`
}

var errActivationRefused = errors.New("activation refused by script")

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*Script, error) {
	var s Script
	if _, err := toml.Decode(string(data), &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}

	keys := make(map[string]bool, len(s.Screens))
	for i, sc := range s.Screens {
		if sc.Key == "" {
			return nil, fmt.Errorf("screen[%d]: key is required", i)
		}
		if keys[sc.Key] {
			return nil, fmt.Errorf("screen %q declared twice", sc.Key)
		}
		keys[sc.Key] = true
	}

	for i, st := range s.Steps {
		switch st.Action {
		case "navigate":
			if st.Key == "" {
				return nil, fmt.Errorf("step[%d]: navigate needs a key", i)
			}
			if _, err := parseMode(st.Mode); err != nil {
				return nil, fmt.Errorf("step[%d]: %w", i, err)
			}
		case "press":
			if st.Button == "" {
				return nil, fmt.Errorf("step[%d]: press needs a button", i)
			}
		case "back", "home", "clear", "wait", "settle":
		default:
			return nil, fmt.Errorf("step[%d]: unknown action %q", i, st.Action)
		}
	}
	return &s, nil
}

func parseMode(mode string) (router.Mode, error) {
	switch strings.ToLower(mode) {
	case "", "push":
		return router.ModePush, nil
	case "replace":
		return router.ModeReplace, nil
	case "clear":
		return router.ModeClearHistory, nil
	default:
		return router.ModePush, fmt.Errorf("unknown mode %q", mode)
	}
}

// register adds every screen to reg. Views are demoViews; view-models
// report their lifecycle to out.
func (s *Script) register(reg *router.Registry, out io.Writer) error {
	for _, sc := range s.Screens {
		opts := []router.RegisterOption{}
		if sc.Title != "" {
			opts = append(opts, router.WithTitle(sc.Title))
		}
		if sc.Icon != "" {
			opts = append(opts, router.WithIcon(sc.Icon))
		}

		err := reg.Register(router.Key(sc.Key),
			func(context.Context) (router.View, error) {
				return &demoView{key: sc.Key, color: sc.Color}, nil
			},
			func(ctx context.Context) (any, error) {
				if sc.Delay.Duration > 0 {
					select {
					case <-time.After(sc.Delay.Duration):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				return &demoViewModel{screen: sc, out: out}, nil
			},
			opts...)
		if err != nil {
			return err
		}
	}
	return nil
}

// demoView is what regions attach. In a window it paints a colored block.
type demoView struct {
	key   string
	color uint32
}

func (v *demoView) String() string {
	return v.key
}

type demoViewModel struct {
	screen Screen
	out    io.Writer
	params router.Params
}

func (vm *demoViewModel) OnParameters(params router.Params) error {
	vm.params = params
	return nil
}

func (vm *demoViewModel) OnActivated(_ context.Context, entry *router.Entry) error {
	if vm.screen.FailActivation {
		return errActivationRefused
	}
	if len(vm.params) > 0 {
		fmt.Fprintf(vm.out, "  activated %s %v\n", entry.Key, map[string]any(vm.params))
	} else {
		fmt.Fprintf(vm.out, "  activated %s\n", entry.Key)
	}
	return nil
}

func (vm *demoViewModel) OnDeactivated(_ context.Context, entry *router.Entry) error {
	fmt.Fprintf(vm.out, "  deactivated %s\n", entry.Key)
	if vm.screen.FailDeactivation {
		return errors.New("deactivation refused by script")
	}
	return nil
}

func (vm *demoViewModel) Dispose() {
	fmt.Fprintf(vm.out, "  disposed %s\n", vm.screen.Key)
}

// syncWriter serializes writes from the UI loop and the script goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// loggingHost prints attach and detach calls instead of drawing.
type loggingHost struct {
	region string
	out    io.Writer
}

func (h loggingHost) Attach(view router.View) {
	fmt.Fprintf(h.out, "  [%s] attach %v\n", h.region, view)
}

func (h loggingHost) Detach(view router.View) {
	fmt.Fprintf(h.out, "  [%s] detach %v\n", h.region, view)
}
