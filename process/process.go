// Copyright © 2021-2025 The Gomon Project.

package process

import (
	"errors"
	"io/fs"
	"strconv"
	"syscall"
	"time"
)

var (
	// ErrNotFound reports that the pid no longer maps to a running process.
	ErrNotFound = errors.New("process not found")

	// ErrDenied reports insufficient privilege to read the process' memory counters.
	ErrDenied = errors.New("process access denied")
)

type (
	// Pid is the identifier for a process.
	Pid int

	// Sampler takes one memory observation of a process.
	Sampler interface {
		Sample(pid Pid, detailed bool) (Sample, error)
	}

	// Reader samples processes through the host operating system.
	Reader struct{}
)

// String formats a pid as a string to comply with fmt.Stringer interface.
func (pid Pid) String() string {
	return strconv.Itoa(int(pid))
}

// NewReader returns a Sampler that queries the host operating system.
func NewReader() *Reader {
	return &Reader{}
}

// Sample resolves the process afresh and reads its memory counters. There are no retries:
// each call is a single query of the operating system.
func (*Reader) Sample(pid Pid, detailed bool) (Sample, error) {
	if pid <= 0 {
		return Sample{}, failure(pid, "pid", ErrNotFound)
	}

	rss, vms, err := pid.memory()
	if err != nil {
		return Sample{}, err
	}

	s := Sample{
		Pid:  pid,
		Time: time.Now(),
		Rss:  rss,
		Vms:  vms,
	}
	if !detailed {
		return s, nil
	}

	if uss, err := pid.unique(); err == nil {
		s.Uss = Present(uss)
	} else {
		s.Uss = Unavailable[uint64]()
	}
	if total, err := physical(); err == nil && total > 0 {
		s.Percent = Present(min(100*float64(rss)/float64(total), 100))
	}

	return s, nil
}

// failure constructs the typed error reported for a failed query. The underlying operating
// system error is only described, never wrapped, so callers match on ErrNotFound and ErrDenied.
func failure(pid Pid, name string, kind error) error {
	return &Error{Pid: pid, Name: name, kind: kind}
}

// classify maps an operating system error onto ErrNotFound or ErrDenied. An unrecognized
// failure to read the basic counters cannot be distinguished from denial, so it is fatal too.
func classify(pid Pid, name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ESRCH):
		return failure(pid, name, ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return failure(pid, name, ErrDenied)
	case err == nil:
		return failure(pid, name, ErrNotFound)
	}
	return &Error{Pid: pid, Name: name, kind: ErrDenied, reason: err.Error()}
}

// Error describes a failed sample.
type Error struct {
	Pid    Pid
	Name   string
	kind   error
	reason string
}

// Error method to comply with error interface.
func (e *Error) Error() string {
	s := "pid " + e.Pid.String() + " " + e.Name + ": " + e.kind.Error()
	if e.reason != "" {
		s += " (" + e.reason + ")"
	}
	return s
}

// Unwrap exposes ErrNotFound or ErrDenied to errors.Is.
func (e *Error) Unwrap() error {
	return e.kind
}
