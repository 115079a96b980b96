package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunScript(t *testing.T) {
	out, err := execute(t, "run", "--config", "testdata/app.toml", "--script", "testdata/flow.toml")
	require.NoError(t, err)

	for _, want := range []string{
		"=> #1 main/home committed",
		"[main] home(Home) | 1 screen",
		"activated settings map[tab:wifi]",
		"[main] home(Home) > settings(Settings) | 2 screens",
		"=> #3 main/broken failed: The screen could not be opened.",
		"event navigation.superseded main/detail #4",
		"=> #4 main/detail superseded",
		"=> #5 main/home committed",
		"=> #6 main/ committed",
		"=> #7 main/missing failed: That screen is not available.",
		"=> #9 main/ failed: Nothing to go back to.",
		"[side] attach settings",
		"disposed home",
	} {
		assert.Contains(t, out, want)
	}

	// The broken screen's view is never attached.
	assert.NotContains(t, out, "attach broken")
}

func TestRunRejectsBadScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(script, []byte("[[step]]\naction = \"teleport\"\n"), 0644))

	_, err := execute(t, "run", "--config", "testdata/app.toml", "--script", script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestRunRequiresScript(t *testing.T) {
	_, err := execute(t, "run", "--config", "testdata/app.toml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "--config", "testdata/app.toml")
	require.NoError(t, err)
	assert.Contains(t, out, "region main (max depth 8)")
	assert.Contains(t, out, "region side (unbounded)")
}

func TestValidateReportsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[input.bindings]\nTurbo = \"back\"\n"), 0644))

	_, err := execute(t, "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown button")
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")

	out, err := execute(t, "init", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "wrote "))

	_, err = execute(t, "validate", "--config", path)
	require.NoError(t, err)

	_, err = execute(t, "init", path)
	require.Error(t, err)
}

func TestParseScript(t *testing.T) {
	_, err := parseScript([]byte("[[screen]]\nkey = \"a\"\n[[screen]]\nkey = \"a\"\n"))
	assert.Error(t, err)

	_, err = parseScript([]byte("[[step]]\naction = \"navigate\"\nkey = \"a\"\nmode = \"sideways\"\n"))
	assert.Error(t, err)

	s, err := parseScript([]byte("[[step]]\naction = \"navigate\"\nkey = \"a\"\nmode = \"replace\"\n"))
	require.NoError(t, err)
	require.Len(t, s.Steps, 1)
}
