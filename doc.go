// Copyright © 2021-2025 The Gomon Project.

/*
Package main implements the Go language "pidmon" process memory monitor command. Pidmon samples
the memory of one process at a fixed interval, writing a row per sample to standard output
until the process exits, its memory may not be read, or the operator interrupts. It then
writes the peak resident set size observed. Additional functionality includes
  - delivery of metrics to Prometheus
  - a websocket stream of the sample rows
  - the latest sample as JSON

The main package defines the following command line flags:
  - -pid:      the process to monitor (required)
  - -interval: the sampling interval, in Go time.Duration format or in seconds (default 2s)
  - -detailed: to also report unique set size and percentage of physical memory
  - -count:    to stop after a number of samples (default 0, unlimited)
  - -config:   a YAML file of settings (default pidmon.yaml)

Settings not given on the command line may be provided by the config file, or by environment
variables such as PIDMON_INTERVAL. The log_level and log_file settings configure logging.

Pidmon exits with status 1 if it fails, including when the process does not exist.
*/
package main
