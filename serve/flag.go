// Copyright © 2021-2025 The Gomon Project.

package serve

import (
	"github.com/zosmac/gocore"
)

var (
	// flags defines the command line flags.
	flags = struct {
		port int
	}{
		port: 0,
	}
)

// init initializes the command line flags.
func init() {
	gocore.Flags.Var(
		&flags.port,
		"port",
		"[-port n]",
		"Port number for the `pidmon` Prometheus metrics and websocket server, 0 to disable",
	)
}

// Port returns the server port from the command line, 0 if the server is disabled.
func Port() int {
	return flags.port
}
