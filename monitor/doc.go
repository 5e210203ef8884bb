// Copyright © 2021-2025 The Gomon Project.

/*
Package monitor drives a memory sampling session for one process. A Session samples the
process on a fixed interval, keeps the peak resident set size, and writes a table row per
sample. The session stops when
  - the process exits (Exited)
  - its memory counters may not be read (Denied)
  - the context is cancelled, or the requested count of samples is reached (Cancelled)

Whichever way it stops, the session finishes by writing the peak resident set size.
*/
package monitor
