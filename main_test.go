// Copyright © 2021-2025 The Gomon Project.

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zosmac/pidmon/config"
	"github.com/zosmac/pidmon/monitor"
)

// restoreFlags resets the command line flags a test changes.
func restoreFlags(t *testing.T) {
	t.Helper()
	saved := flags
	t.Cleanup(func() { flags = saved })
}

// loadConfig creates a settings context from a file of content.
func loadConfig(t *testing.T, content string) *config.Context {
	t.Helper()
	name := filepath.Join(t.TempDir(), "pidmon.yaml")
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	cfg := config.NewContext()
	require.NoError(t, cfg.Load(name))
	return cfg
}

func TestVisited(t *testing.T) {
	fs := flag.NewFlagSet("pidmon", flag.ContinueOnError)
	var count, pid int
	fs.IntVar(&count, "count", 0, "")
	fs.IntVar(&pid, "pid", 0, "")
	require.NoError(t, fs.Parse([]string{"-count", "3"}))
	assert.Equal(t, map[string]bool{"count": true}, visited(fs))
}

func TestSettingsPrecedence(t *testing.T) {
	restoreFlags(t)
	t.Setenv("PIDMON_INTERVAL", "9s")
	t.Setenv("PIDMON_COUNT", "7")
	t.Setenv("PIDMON_DETAILED", "false")
	cfg := loadConfig(t, `
pid: 4242
interval: 0.5
detailed: true
port: 9100
`)

	flags.count = 3
	port, err := settings(cfg, map[string]bool{"count": true})
	require.NoError(t, err)

	assert.Equal(t, 4242, flags.pid, "the file fills in")
	assert.Equal(t, interval(500*time.Millisecond), flags.interval, "the file overrides the environment")
	assert.True(t, flags.detailed, "the file overrides the environment")
	assert.Equal(t, 3, flags.count, "the command line overrides the environment")
	assert.Equal(t, 9100, port)
}

func TestSettingsCommandLineOverridesFile(t *testing.T) {
	restoreFlags(t)
	cfg := loadConfig(t, "pid: 4242\ninterval: 10s\ncount: 5\n")

	flags.pid = 77
	flags.interval = interval(time.Second)
	flags.count = 0
	_, err := settings(cfg, map[string]bool{"pid": true, "interval": true, "count": true})
	require.NoError(t, err)

	assert.Equal(t, 77, flags.pid)
	assert.Equal(t, interval(time.Second), flags.interval)
	assert.Zero(t, flags.count)
}

func TestSettingsEnvironment(t *testing.T) {
	restoreFlags(t)
	t.Setenv("PIDMON_PID", "55")
	t.Setenv("PIDMON_INTERVAL", "250ms")
	cfg := config.NewContext()
	require.NoError(t, cfg.Load(filepath.Join(t.TempDir(), "absent.yaml")))

	port, err := settings(cfg, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, 55, flags.pid)
	assert.Equal(t, interval(250*time.Millisecond), flags.interval)
	assert.Zero(t, port)
}

func TestSettingsInvalid(t *testing.T) {
	for key, value := range map[string]string{
		"PIDMON_PID":      "self",
		"PIDMON_INTERVAL": "soon",
		"PIDMON_COUNT":    "many",
		"PIDMON_PORT":     "http",
	} {
		t.Run(key, func(t *testing.T) {
			restoreFlags(t)
			t.Setenv(key, value)
			_, err := settings(config.NewContext(), map[string]bool{})
			assert.Error(t, err)
		})
	}
}

func TestIntervalFlag(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2", 2 * time.Second},
		{"0.25", 250 * time.Millisecond},
		{"1m30s", 90 * time.Second},
		{"-1", -time.Second},
	}
	for _, tt := range tests {
		var i interval
		require.NoError(t, i.Set(tt.in), tt.in)
		assert.Equal(t, tt.want, time.Duration(i), tt.in)
	}

	var i interval
	assert.Error(t, i.Set("soon"))
	assert.Error(t, i.Set("1e-10"))

	i = interval(1500 * time.Millisecond)
	assert.Equal(t, "1.5s", i.String())
}

// capture runs Main, returning what it wrote to standard output and its error.
func capture(t *testing.T) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	err = Main(context.Background())
	os.Stdout = stdout
	require.NoError(t, w.Close())
	out, rerr := io.ReadAll(r)
	require.NoError(t, rerr)
	return string(out), err
}

func TestMainMissingProcess(t *testing.T) {
	restoreFlags(t)
	flags.config = ""
	flags.pid = 999999999
	flags.interval = interval(time.Second)

	out, err := capture(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pid 999999999 does not exist")
	assert.Empty(t, out, "nothing is written before the process is found")
}

func TestMainInvalidInterval(t *testing.T) {
	restoreFlags(t)
	flags.config = ""
	flags.pid = os.Getpid()
	flags.interval = interval(-time.Second)

	out, err := capture(t)
	assert.ErrorIs(t, err, monitor.ErrInvalidCadence)
	assert.Empty(t, out)
}
