// Copyright © 2021-2025 The Gomon Project.

/*
Package config provides the settings of the "pidmon" command. A Context is created once by the
command and passed to whatever needs settings. Its Load reads an optional YAML file of
key: value settings just once; values in the file take precedence over environment variables
named with the PIDMON_ prefix. Its Logging configures the log level and an optional log file
from the log_level and log_file settings, also just once.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zosmac/gocore"
	"gopkg.in/yaml.v3"
)

const (
	// Prefix qualifies the environment variable for a setting.
	Prefix = "PIDMON_"
)

var (
	// ErrDuration rejects a number of seconds that is not representable as a duration.
	ErrDuration = errors.New("invalid duration")
)

type (
	// Context holds the settings loaded for the command.
	Context struct {
		mu       sync.RWMutex
		loaded   bool
		filename string
		values   map[string]string
		lookup   func(string) (string, bool)
		logging  bool
		sink     *os.File
	}
)

// NewContext creates an unloaded settings context that consults the environment.
func NewContext() *Context {
	return &Context{
		values: map[string]string{},
		lookup: os.LookupEnv,
	}
}

// Load reads the settings file. A missing file is not an error, the environment alone then
// provides settings. Loading is performed once, later calls are skipped with a warning.
func (c *Context) Load(filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		gocore.Error("config already loaded, skipping", nil, map[string]string{
			"loaded":    c.filename,
			"requested": filename,
		}).Warn()
		return nil
	}
	c.loaded = true
	c.filename = filename

	if filename == "" {
		return nil
	}
	buf, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		gocore.Error("config not found, using only environment variables", nil, map[string]string{
			"file": filename,
		}).Warn()
		return nil
	} else if err != nil {
		return gocore.Error("config", err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(buf, &values); err != nil {
		return gocore.Error("config yaml", err, map[string]string{
			"file": filename,
		})
	}
	for key, value := range values {
		switch value := value.(type) {
		case nil:
		case map[string]any, []any:
			return gocore.Error("config", fmt.Errorf("setting %q is not a scalar", key))
		default:
			c.values[normalize(key)] = fmt.Sprint(value)
		}
	}

	return nil
}

// Lookup returns a setting's value from the settings file, or else from the environment.
func (c *Context) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupLocked(key)
}

// lookupLocked is Lookup for a caller holding the lock.
func (c *Context) lookupLocked(key string) (string, bool) {
	key = normalize(key)
	if value, ok := c.values[key]; ok {
		return value, true
	}
	return c.lookup(Prefix + strings.ToUpper(key))
}

// String returns a setting, or the default if it is not set.
func (c *Context) String(key, def string) string {
	if value, ok := c.Lookup(key); ok {
		return value
	}
	return def
}

// Int returns an integer setting.
func (c *Context) Int(key string, def int) (int, error) {
	return cast(c, key, def, strconv.Atoi)
}

// Bool returns a boolean setting, true for any of 1, true, yes, or on.
func (c *Context) Bool(key string, def bool) bool {
	value, ok := c.Lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Duration returns a duration setting, specified in Go time.Duration string format or as a
// number of seconds.
func (c *Context) Duration(key string, def time.Duration) (time.Duration, error) {
	return cast(c, key, def, ParseDuration)
}

// ParseDuration parses a Go time.Duration string, or a number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.ParseDuration(s)
	}
	ns := secs * float64(time.Second)
	switch {
	case math.IsNaN(ns), math.Abs(ns) >= math.MaxInt64:
		return 0, fmt.Errorf("%w: %q seconds", ErrDuration, s)
	case ns != 0 && math.Abs(ns) < 1:
		return 0, fmt.Errorf("%w: %q seconds is less than a nanosecond", ErrDuration, s)
	}
	return time.Duration(ns), nil
}

// cast converts a setting's value, reporting the setting that failed to convert.
func cast[T any](c *Context, key string, def T, conv func(string) (T, error)) (T, error) {
	value, ok := c.Lookup(key)
	if !ok {
		return def, nil
	}
	v, err := conv(strings.TrimSpace(value))
	if err != nil {
		return def, gocore.Error("config", fmt.Errorf("failed to cast %s=%q to %T: %w", key, value, def, err))
	}
	return v, nil
}

// normalize maps setting names to a canonical lower case form.
func normalize(key string) string {
	return strings.ToLower(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(key)), Prefix))
}
