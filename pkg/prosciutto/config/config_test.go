package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultTOML(t *testing.T) {
	cfg, err := Parse([]byte(DefaultTOML()))
	require.NoError(t, err)

	assert.Equal(t, []string{"en"}, cfg.Languages)
	assert.Equal(t, 150*time.Millisecond, cfg.TransitionDuration.Duration)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.Len(t, cfg.Regions, 1)
	assert.Equal(t, "main", cfg.Regions[0].Name)
}

func TestParseRegions(t *testing.T) {
	data := `
transition_duration = "0s"

[[region]]
name = "main"
max_depth = 8

[[region]]
name = "sidebar"
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	require.Len(t, cfg.Regions, 2)
	main, ok := cfg.Region("main")
	require.True(t, ok)
	assert.Equal(t, 8, main.MaxDepth)

	sidebar, ok := cfg.Region("sidebar")
	require.True(t, ok)
	assert.Equal(t, 0, sidebar.MaxDepth)

	_, ok = cfg.Region("footer")
	assert.False(t, ok)
	assert.Zero(t, cfg.TransitionDuration.Duration)
}

func TestParseFallsBackToDefaultRegion(t *testing.T) {
	cfg, err := Parse([]byte(`debug = true`))
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	require.Len(t, cfg.Regions, 1)
	assert.Equal(t, "main", cfg.Regions[0].Name)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate region", "[[region]]\nname = \"a\"\n[[region]]\nname = \"a\"\n"},
		{"empty region name", "[[region]]\nname = \"\"\n"},
		{"negative depth", "[[region]]\nname = \"a\"\nmax_depth = -1\n"},
		{"bad language", "languages = [\"not a language!\"]\n"},
		{"negative duration", "transition_duration = \"-5ms\"\n"},
		{"unknown key", "colour = \"red\"\n"},
		{"bad level", "[logging]\nlevel = \"loud\"\n"},
		{"bad platform", "[theme]\nplatform = \"amiga\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestParseMalformedDuration(t *testing.T) {
	_, err := Parse([]byte(`transition_duration = "soon"`))
	require.Error(t, err)
}

func TestValidateWrapsErrInvalid(t *testing.T) {
	cfg := Default()
	cfg.Regions = nil
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestEnvOverridesLogLevel(t *testing.T) {
	t.Setenv(constants.LogLevelEnvVar, "debug")

	cfg, err := Parse([]byte("[logging]\nlevel = \"error\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[region]]\nname = \"content\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "content", cfg.Regions[0].Name)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestLoadWithoutPathUsesDefault(t *testing.T) {
	t.Setenv(constants.ConfigPathEnvVar, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Regions, cfg.Regions)
}

func TestLoadWithoutPathValidatesEnv(t *testing.T) {
	t.Setenv(constants.ConfigPathEnvVar, "")
	t.Setenv(constants.LogLevelEnvVar, "bogus")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}
