// Copyright © 2021-2025 The Gomon Project.

package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/zosmac/gocore"
	"github.com/zosmac/pidmon/format"
	"github.com/zosmac/pidmon/process"
)

var (
	// ErrInvalidCadence rejects a non-positive sampling interval.
	ErrInvalidCadence = errors.New("sampling interval must be positive")

	// ErrInvalidPid rejects a non-positive process identifier.
	ErrInvalidPid = errors.New("pid must be positive")

	// ErrSessionUsed rejects running a session a second time.
	ErrSessionUsed = errors.New("session already run")
)

type (
	// Config defines a monitoring session.
	Config struct {
		Pid       process.Pid
		Interval  time.Duration
		Detailed  bool
		Count     int             // samples to take, 0 for no limit
		Sampler   process.Sampler // defaults to the host operating system
		Output    io.Writer       // defaults to standard output
		Observers []Observer
	}

	// Report conveys the progress of a session to its observers.
	Report struct {
		Session uuid.UUID
		Pid     process.Pid
		Sample  process.Sample
		Peak    uint64
		Samples int
		Outcome Outcome // set only when the session has stopped
	}

	// Observer is notified of each sample and of the session stopping, on the loop's goroutine.
	Observer func(Report)

	// Session owns the state of one monitoring loop.
	Session struct {
		ID       uuid.UUID
		Pid      process.Pid
		Interval time.Duration
		Detailed bool
		Count    int

		sampler   process.Sampler
		output    io.Writer
		observers []Observer
		fsm       *fsm.FSM
		peak      uint64
		samples   int
		last      process.Sample
	}
)

// New validates the configuration and creates a session in the starting state. Nothing is
// written until Run.
func New(cfg Config) (*Session, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCadence, cfg.Interval)
	}
	if cfg.Pid <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPid, cfg.Pid)
	}
	if cfg.Count < 0 {
		cfg.Count = 0
	}
	if cfg.Sampler == nil {
		cfg.Sampler = process.NewReader()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	s := &Session{
		ID:        uuid.New(),
		Pid:       cfg.Pid,
		Interval:  cfg.Interval,
		Detailed:  cfg.Detailed,
		Count:     cfg.Count,
		sampler:   cfg.Sampler,
		output:    cfg.Output,
		observers: cfg.Observers,
	}
	s.fsm = newMachine(fsm.Callbacks{
		"enter_" + stateRunning: func(context.Context, *fsm.Event) {
			s.peak = 0
		},
	})

	return s, nil
}

// Peak reports the greatest resident set size sampled so far.
func (s *Session) Peak() uint64 {
	return s.peak
}

// Run samples the process until it exits, access to it is denied, or the context is cancelled.
// The peak summary is written however the session stops. Only a Denied outcome returns an
// error, which wraps process.ErrDenied.
func (s *Session) Run(ctx context.Context) (outcome Outcome, err error) {
	if !s.fsm.Is(stateStarting) {
		return "", ErrSessionUsed
	}

	s.print(format.Header(s.Detailed)...)
	s.transition(ctx, eventRun)
	gocore.Error("monitor", nil, s.details()).Info()

	defer func() {
		s.print(format.Summary(s.peak))
		s.notify(outcome)
		details := s.details()
		details["outcome"] = outcome.String()
		details["peak"] = strconv.FormatUint(s.peak, 10)
		details["samples"] = strconv.Itoa(s.samples)
		if err != nil {
			gocore.Error("monitor", err, details).Err()
		} else {
			gocore.Error("monitor", nil, details).Info()
		}
	}()

	timer := time.NewTimer(s.Interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return s.stop(ctx, eventCancel, Cancelled), nil
		}

		sample, err := s.sampler.Sample(s.Pid, s.Detailed)
		switch {
		case errors.Is(err, process.ErrNotFound):
			return s.stop(ctx, eventExit, Exited), nil
		case err != nil:
			if !errors.Is(err, process.ErrDenied) {
				err = fmt.Errorf("%w: %v", process.ErrDenied, err)
			}
			return s.stop(ctx, eventDeny, Denied), err
		}

		s.peak = UpdatePeak(s.peak, sample)
		s.samples++
		s.last = sample
		s.print(format.Row(sample, s.Detailed))
		s.notify("")

		if s.Count > 0 && s.samples >= s.Count {
			return s.stop(ctx, eventCancel, Cancelled), nil
		}

		if !wait(ctx, timer, s.Interval) {
			return s.stop(ctx, eventCancel, Cancelled), nil
		}
	}
}

// wait blocks for a full interval, returning false if the context is cancelled first.
func wait(ctx context.Context, timer *time.Timer, interval time.Duration) bool {
	timer.Reset(interval)
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// stop moves the session to its stopped state.
func (s *Session) stop(ctx context.Context, event string, outcome Outcome) Outcome {
	s.transition(ctx, event)
	return outcome
}

// print writes lines to the session's output.
func (s *Session) print(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(s.output, line)
	}
}

// notify reports the session's progress to its observers.
func (s *Session) notify(outcome Outcome) {
	r := Report{
		Session: s.ID,
		Pid:     s.Pid,
		Sample:  s.last,
		Peak:    s.peak,
		Samples: s.samples,
		Outcome: outcome,
	}
	for _, observe := range s.observers {
		observe(r)
	}
}

// details describes the session for logging.
func (s *Session) details() map[string]string {
	return map[string]string{
		"session":  s.ID.String(),
		"pid":      s.Pid.String(),
		"interval": s.Interval.String(),
		"detailed": strconv.FormatBool(s.Detailed),
	}
}
