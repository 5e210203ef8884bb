// Copyright © 2021-2025 The Gomon Project.

package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/zosmac/gocore"
)

var (
	// ErrLogLevel rejects an unknown log_level setting.
	ErrLogLevel = errors.New("invalid log level")

	// logLevels maps the log_level setting to gocore's levels.
	logLevels = map[string]gocore.LogLevel{
		"TRACE":    gocore.LevelTrace,
		"DEBUG":    gocore.LevelDebug,
		"INFO":     gocore.LevelInfo,
		"SUCCESS":  gocore.LevelInfo,
		"WARN":     gocore.LevelWarn,
		"WARNING":  gocore.LevelWarn,
		"ERROR":    gocore.LevelError,
		"FATAL":    gocore.LevelFatal,
		"CRITICAL": gocore.LevelFatal,
	}
)

// Logging sets the logging level from the log_level setting, and if log_file is set, also
// appends log records to that file. Without log_level, the level gocore takes from LOG_LEVEL
// remains. Logging is configured once, later calls are skipped with a warning.
func (c *Context) Logging() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.logging {
		gocore.Error("logging already configured, skipping", nil).Warn()
		return nil
	}

	level := gocore.LoggingLevel
	if name, ok := c.lookupLocked("log_level"); ok {
		var valid bool
		if level, valid = logLevels[strings.ToUpper(strings.TrimSpace(name))]; !valid {
			return gocore.Error("logging", fmt.Errorf("%w: %q", ErrLogLevel, name))
		}
	}

	if name, ok := c.lookupLocked("log_file"); ok && strings.TrimSpace(name) != "" {
		name = strings.TrimSpace(name)
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return gocore.Error("logging MkdirAll", err, map[string]string{"file": name})
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return gocore.Error("logging OpenFile", err, map[string]string{"file": name})
		}
		c.sink = f
		log.SetOutput(io.MultiWriter(log.Writer(), f))
	}

	gocore.LoggingLevel = level
	c.logging = true
	return nil
}

// Close releases the log file, restoring logging to standard error.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := c.sink.Close()
	c.sink = nil
	return err
}
