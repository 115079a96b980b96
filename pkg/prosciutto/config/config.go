// Package config loads prosciutto application settings from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration that decodes from strings like "150ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Region declares a navigation region created at startup.
type Region struct {
	Name     string `toml:"name"`
	MaxDepth int    `toml:"max_depth"` // 0 means unbounded
}

// Logging controls where logs go and how verbose they are.
type Logging struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// Theme overrides the default accent and background colors, as 0xRRGGBB.
type Theme struct {
	Platform   string `toml:"platform"` // "cannoli" or empty
	Accent     uint32 `toml:"accent"`
	Background uint32 `toml:"background"`
	FontPath   string `toml:"font_path"`
}

// Window configures the SDL window.
type Window struct {
	Title string   `toml:"title"`
	Flags []string `toml:"flags"` // e.g. "borderless", "fullscreen_desktop"
}

// Input lists evdev devices to read and button-to-action overrides.
type Input struct {
	Devices  []string          `toml:"devices"`
	Bindings map[string]string `toml:"bindings"` // button name -> "back", "home", "clear" or "none"
}

// Config is the top-level TOML structure.
type Config struct {
	Languages          []string `toml:"languages"`
	Debug              bool     `toml:"debug"`
	TransitionDuration Duration `toml:"transition_duration"`
	IconSize           int      `toml:"icon_size"`
	Logging            Logging  `toml:"logging"`
	Theme              Theme    `toml:"theme"`
	Window             Window   `toml:"window"`
	Input              Input    `toml:"input"`
	Regions            []Region `toml:"region"`
}

const defaultConfigTOML = `# prosciutto application config
languages = ["en"]
debug = false
transition_duration = "150ms"
icon_size = 48

[logging]
level = "info"
path = ""

[window]
title = "prosciutto"

[input]
devices = []

[input.bindings]
B = "back"
Menu = "home"

[[region]]
name = "main"
max_depth = 0
`

// DefaultTOML returns a commented starter config.
func DefaultTOML() string {
	return defaultConfigTOML
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Languages:          []string{"en"},
		Debug:              constants.IsDevMode(),
		TransitionDuration: Duration{constants.DefaultTransitionDuration},
		IconSize:           constants.DefaultIconSize,
		Logging:            Logging{Level: "info"},
		Window:             Window{Title: "prosciutto"},
		Regions:            []Region{{Name: "main", MaxDepth: constants.DefaultMaxDepth}},
	}
}

// Load reads and parses the config at path. An empty path falls back to
// PROSCIUTTO_CONFIG and then to Default.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(constants.ConfigPathEnvVar)
	}
	if path == "" {
		cfg := Default()
		cfg.applyEnv()
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML bytes on top of Default, applies environment
// overrides and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	// Regions are replaced wholesale when the file declares any.
	cfg.Regions = nil

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = Default().Regions
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if level := os.Getenv(constants.LogLevelEnvVar); level != "" {
		c.Logging.Level = level
	}
	if constants.IsDevMode() {
		c.Debug = true
	}
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("%w: at least one [[region]] is required", ErrInvalid)
	}

	seen := make(map[string]struct{}, len(c.Regions))
	for i, r := range c.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%w: region[%d]: name is required", ErrInvalid, i)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: region %q declared twice", ErrInvalid, r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.MaxDepth < 0 {
			return fmt.Errorf("%w: region %q: max_depth must be >= 0", ErrInvalid, r.Name)
		}
	}

	for _, lang := range c.Languages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("%w: language %q: %v", ErrInvalid, lang, err)
		}
	}

	if c.TransitionDuration.Duration < 0 {
		return fmt.Errorf("%w: transition_duration must not be negative", ErrInvalid)
	}
	if c.IconSize < 0 {
		return fmt.Errorf("%w: icon_size must not be negative", ErrInvalid)
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Logging.Level)
	}

	switch c.Theme.Platform {
	case "", "cannoli":
	default:
		return fmt.Errorf("%w: unknown theme platform %q", ErrInvalid, c.Theme.Platform)
	}
	return nil
}

// Region returns the declared region named name.
func (c Config) Region(name string) (Region, bool) {
	for _, r := range c.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}
