// Copyright © 2021-2025 The Gomon Project.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zosmac/gocore"
	"github.com/zosmac/pidmon/config"
	"github.com/zosmac/pidmon/monitor"
	"github.com/zosmac/pidmon/process"
	"github.com/zosmac/pidmon/serve"
	"golang.org/x/term"
)

// main exits with a failure status if Main returns an error, which gocore.Main only logs.
func main() {
	var failed atomic.Bool
	gocore.Main(func(ctx context.Context) error {
		err := Main(ctx)
		failed.Store(err != nil)
		return err
	})
	if failed.Load() {
		os.Exit(1)
	}
}

// Main called from gocore.Main.
func Main(ctx context.Context) error {
	cfg := config.NewContext()
	if err := cfg.Load(flags.config); err != nil {
		return gocore.Error("config", err)
	}
	if err := cfg.Logging(); err != nil {
		return gocore.Error("config", err)
	}
	defer cfg.Close()

	port, err := settings(cfg, visited(&gocore.Flags.FlagSet))
	if err != nil {
		return gocore.Error("settings", err)
	}

	pid := process.Pid(flags.pid)
	var srv *serve.Server
	var observers []monitor.Observer
	if port > 0 {
		srv = serve.New(flags.detailed)
		observers = append(observers, srv.Observe)
	}

	session, err := monitor.New(monitor.Config{
		Pid:       pid,
		Interval:  time.Duration(flags.interval),
		Detailed:  flags.detailed,
		Count:     flags.count,
		Observers: observers,
	})
	if err != nil {
		return gocore.Error("monitor", err)
	}

	if !process.Exists(pid) {
		return gocore.Error("monitor", fmt.Errorf("pid %d does not exist", pid))
	}

	if srv != nil {
		srv.Serve(ctx, port)
	}

	executable, _ := os.Executable()
	gocore.Error("start", nil, map[string]string{
		"pid":        strconv.Itoa(os.Getpid()),
		"command":    strings.Join(os.Args, " "),
		"executable": executable,
		"version":    gocore.Version,
		"user":       gocore.Username(os.Getuid()),
	}).Info()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Monitoring memory of pid %d every %v, press Ctrl+C to stop\n\n",
			pid, session.Interval)
	}

	outcome, err := session.Run(ctx)
	if errors.Is(err, process.ErrDenied) {
		return gocore.Error("monitor", err, map[string]string{
			"outcome": outcome.String(),
			"hint":    "re-run with elevated privileges",
		})
	} else if err != nil {
		return gocore.Error("monitor", err)
	}

	gocore.Error("stop", nil, map[string]string{
		"outcome": outcome.String(),
		"pid":     pid.String(),
	}).Info()
	return nil
}
