// Copyright © 2021-2025 The Gomon Project.

package main

import (
	"flag"
	"time"

	"github.com/zosmac/gocore"
	"github.com/zosmac/pidmon/config"
	"github.com/zosmac/pidmon/serve"
)

var (
	// flags defines the command line flags.
	flags = struct {
		pid      int
		interval interval
		detailed bool
		count    int
		config   string
	}{
		interval: interval(2 * time.Second),
		config:   "pidmon.yaml",
	}
)

// init initializes the command line flags.
func init() {
	gocore.Flags.Var(
		&flags.pid,
		"pid",
		"-pid <pid>",
		"The `pid` of the process to monitor",
	)
	gocore.Flags.Var(
		&flags.interval,
		"interval",
		"[-interval <interval>]",
		"Sample memory at `interval`, specified in Go time.Duration string format or in seconds",
	)
	gocore.Flags.Var(
		&flags.detailed,
		"detailed",
		"[-detailed]",
		"Report unique set size and percentage of memory, which may require elevated privileges",
	)
	gocore.Flags.Var(
		&flags.count,
		"count",
		"[-count <count>]",
		"Stop after `count` samples, 0 to sample until the process exits",
	)
	gocore.Flags.Var(
		&flags.config,
		"config",
		"[-config <file>]",
		"YAML `file` of settings for flags not on the command line",
	)

	gocore.Flags.CommandDescription = `Monitors the memory of a process,
	reporting at each interval its:
		• resident set size
		• virtual memory size
		• unique set size (detailed)
		• percentage of physical memory (detailed)
	and finally the peak resident set size.`
}

// interval is a command line flag type. Its validity is checked when the session is created.
type interval time.Duration

// Set is a flag.Value interface method to enable interval as a command line flag.
func (i *interval) Set(s string) error {
	d, err := config.ParseDuration(s)
	if err != nil {
		return err
	}
	*i = interval(d)
	return nil
}

// String is a flag.Value interface method to enable interval as a command line flag.
func (i *interval) String() string {
	return time.Duration(*i).String()
}

// visited returns the names of the flags set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// settings fills in the flags not set on the command line from the config context, returning
// the server port.
func settings(cfg *config.Context, set map[string]bool) (port int, err error) {
	if !set["pid"] {
		if flags.pid, err = cfg.Int("pid", flags.pid); err != nil {
			return 0, err
		}
	}
	if !set["interval"] {
		d, err := cfg.Duration("interval", time.Duration(flags.interval))
		if err != nil {
			return 0, err
		}
		flags.interval = interval(d)
	}
	if !set["detailed"] {
		flags.detailed = cfg.Bool("detailed", flags.detailed)
	}
	if !set["count"] {
		if flags.count, err = cfg.Int("count", flags.count); err != nil {
			return 0, err
		}
	}
	port = serve.Port()
	if !set["port"] {
		if port, err = cfg.Int("port", port); err != nil {
			return 0, err
		}
	}
	return port, nil
}
