// Copyright © 2021-2025 The Gomon Project.

/*
Package process samples the memory footprint of a single process for the "pidmon" command:
  - resident set size (RSS) and virtual memory size (VMS) on every sample
  - unique set size (USS) and the share of physical memory in detailed mode

Operating system failures are classified at this boundary. A process that is gone reports
ErrNotFound, a process whose basic memory counters cannot be read reports ErrDenied, and a
denied USS read degrades the sample rather than failing it.
*/
package process
