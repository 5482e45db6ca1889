// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/psm14/suspendable-init/lib/clock"
	"github.com/psm14/suspendable-init/lib/journal"
)

// Phase is the supervisor's lifecycle state.
type Phase int

const (
	// PhaseStarting covers signal setup and the first spawn.
	PhaseStarting Phase = iota

	// PhaseRunning is the steady state: a child is tracked.
	PhaseRunning

	// PhasePaused tracks no child; the previous one was killed and
	// collected. Orphans of earlier generations are still reaped.
	PhasePaused

	// PhaseTerminating has forwarded a termination signal to the
	// child and is waiting, bounded by the grace period, for it to
	// exit.
	PhaseTerminating

	// PhaseExited is terminal; the supervisor's exit code is decided.
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseTerminating:
		return "terminating"
	case PhaseExited:
		return "exited"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// pauseCause records what initiated a pause. A detector detach only
// resumes detector-initiated pauses; a pause requested by signal
// stays until the resume signal arrives.
type pauseCause int

const (
	pauseNone pauseCause = iota
	pauseBySignal
	pauseByDetector
)

// Config assembles a Supervisor. Command is required; every other
// field has a usable default.
type Config struct {
	// Command and Args are the main child command line, passed
	// through verbatim.
	Command string
	Args    []string

	// TickInterval is the poll period for safety-net reaping and
	// attach detection. Default 100ms.
	TickInterval time.Duration

	// GracePeriod bounds how long the child gets to honor a
	// termination signal before it is killed. Default 10s.
	GracePeriod time.Duration

	// PauseSignal and ResumeSignal are the control signals. Defaults
	// are SIGUSR1 and SIGUSR2.
	PauseSignal  unix.Signal
	ResumeSignal unix.Signal

	// Launcher spawns the child. Default: ExecLauncher.
	Launcher Launcher

	// Reaper collects terminated descendants. Default: OSReaper.
	Reaper Reaper

	// Detector, when non-nil, is polled every tick; attach pauses the
	// child, detach resumes it. Nil disables attach handling.
	Detector *Detector

	// Clock drives the tick and the grace timer. Default: real time.
	Clock clock.Clock

	// Journal receives lifecycle records. Nil discards them.
	Journal *journal.Journal

	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger
}

// Supervisor is the signal-driven control loop. All fields are owned
// by the goroutine running Run; nothing here is shared.
type Supervisor struct {
	cfg     Config
	signals chan os.Signal

	phase    Phase
	child    Child
	cause    pauseCause
	attached bool
	grace    <-chan time.Time
	exitCode int
	runErr   error
}

// New validates cfg, applies defaults, and returns a Supervisor ready
// to Run.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Command == "" {
		return nil, errors.New("supervisor: command is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 10 * time.Second
	}
	if cfg.PauseSignal == 0 {
		cfg.PauseSignal = DefaultPauseSignal
	}
	if cfg.ResumeSignal == 0 {
		cfg.ResumeSignal = DefaultResumeSignal
	}
	if cfg.Launcher == nil {
		cfg.Launcher = &ExecLauncher{Logger: cfg.Logger}
	}
	if cfg.Reaper == nil {
		cfg.Reaper = &OSReaper{Logger: cfg.Logger}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Supervisor{
		cfg:     cfg,
		signals: make(chan os.Signal, signalBuffer),
		phase:   PhaseStarting,
	}, nil
}

// Run installs signal routing, spawns the child, and drives the state
// machine until it exits. The returned code is the process exit code:
// the final child generation's translated status, 0 for a shutdown
// while paused, or 1 for spawn failures and signal deaths.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	subscribeSignals(s.signals)
	defer unsubscribeSignals(s.signals)
	return s.run(ctx)
}

// run is the loop body, split from Run so tests can inject signals on
// s.signals without touching process-wide dispositions.
func (s *Supervisor) run(ctx context.Context) (int, error) {
	if err := s.spawn(); err != nil {
		s.cfg.Logger.Error("starting child failed", "error", err)
		return 1, err
	}
	s.phase = PhaseRunning

	ticker := s.cfg.Clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	// After the context fires once it is treated like a termination
	// signal and then disarmed, so the closed channel cannot starve
	// the select.
	done := ctx.Done()

	for s.phase != PhaseExited {
		select {
		case <-done:
			done = nil
			s.shutdown(unix.SIGTERM)
		case sig := <-s.signals:
			s.handleSignal(sig)
		case <-ticker.C:
			s.tick()
		case <-s.grace:
			s.graceExpired()
		}
	}

	// Final reap pass: orphans that died during teardown must not
	// outlive us as zombies.
	s.collect(s.cfg.Reaper.Reap())
	s.record(journal.Record{Kind: journal.KindShutdown, ExitCode: &s.exitCode})
	return s.exitCode, s.runErr
}

// handleSignal interprets one delivered signal. Reap requests, control
// signals, and termination are consumed; everything else is forwarded
// verbatim to the child.
func (s *Supervisor) handleSignal(sig os.Signal) {
	usig, ok := sig.(unix.Signal)
	if !ok {
		return
	}
	switch {
	case usig == unix.SIGCHLD:
		s.collect(s.cfg.Reaper.Reap())
	case usig == s.cfg.PauseSignal:
		s.pause(pauseBySignal, "pause signal")
	case usig == s.cfg.ResumeSignal:
		s.resume("resume signal")
	case usig == unix.SIGTERM || usig == unix.SIGINT:
		s.shutdown(usig)
	case isRuntimeInternal(usig):
		// Runtime-internal; not the child's business.
	default:
		s.forward(usig)
	}
}

// tick is the poll arm: safety-net reap, then attach detection.
func (s *Supervisor) tick() {
	s.collect(s.cfg.Reaper.Reap())
	if s.cfg.Detector == nil || (s.phase != PhaseRunning && s.phase != PhasePaused) {
		return
	}

	attached := s.cfg.Detector.Attached()
	if attached == s.attached {
		return
	}
	s.attached = attached

	if attached {
		s.cfg.Logger.Info("foreign process detected in namespace")
		s.record(journal.Record{Kind: journal.KindAttach})
		s.pause(pauseByDetector, "debugger attached")
	} else {
		s.cfg.Logger.Info("namespace clear of foreign processes")
		s.record(journal.Record{Kind: journal.KindDetach})
		if s.cause == pauseByDetector {
			s.resume("debugger detached")
		}
	}
}

// collect routes reaped statuses: the tracked child's status drives a
// state transition, anything else was an adopted orphan.
func (s *Supervisor) collect(exits []Exit) {
	for _, exit := range exits {
		if s.child != nil && exit.PID == s.child.PID() {
			s.childExited(exit)
			continue
		}
		s.cfg.Logger.Debug("reaped orphan", "pid", exit.PID, "status", uint32(exit.Status))
		s.record(exitRecord(journal.KindOrphanReap, exit))
	}
}

// childExited finalizes the tracked child's generation. In Running and
// Terminating the supervisor adopts the translated exit code and
// exits; the grace timer, if armed, is disarmed.
func (s *Supervisor) childExited(exit Exit) {
	code := ExitCode(exit.Status)
	s.cfg.Logger.Info("child exited",
		"pid", exit.PID,
		"exit_code", code,
		"signaled", exit.Status.Signaled(),
	)
	s.record(exitRecord(journal.KindExit, exit))
	s.child = nil
	s.grace = nil
	s.exitCode = code
	s.phase = PhaseExited
}

// killChild kills the tracked child and blocks until it is collected,
// discharging the wait obligation before any further spawn.
func (s *Supervisor) killChild() {
	pid := s.child.PID()
	_ = s.child.Signal(unix.SIGKILL)
	if exit, err := s.cfg.Reaper.Wait(pid); err != nil {
		// Collected by an interleaved reap pass; the wait obligation
		// is already discharged.
		s.cfg.Logger.Warn("waiting for killed child", "pid", pid, "error", err)
	} else {
		s.record(exitRecord(journal.KindExit, exit))
	}
	s.child = nil
}

// pause kills the child outright (the pause contract is a quiescent
// namespace now, not a graceful drain), waits for it to be collected,
// and idles. No-op outside Running.
func (s *Supervisor) pause(cause pauseCause, reason string) {
	if s.phase != PhaseRunning {
		return
	}
	s.cfg.Logger.Info("pausing", "pid", s.child.PID(), "reason", reason)
	s.record(journal.Record{Kind: journal.KindPause, PID: s.child.PID(), Detail: reason})
	s.killChild()
	s.cause = cause
	s.phase = PhasePaused
}

// resume spawns a fresh child generation. From Paused it is a plain
// resume. From Running it is a restart: the current child is killed,
// collected, and replaced in one step. A spawn failure is fatal either
// way: the supervisor exits 1 rather than idling forever with nothing
// to supervise.
func (s *Supervisor) resume(reason string) {
	switch s.phase {
	case PhaseRunning:
		s.cfg.Logger.Info("restarting", "pid", s.child.PID(), "reason", reason)
		s.record(journal.Record{Kind: journal.KindResume, PID: s.child.PID(), Detail: reason})
		s.killChild()
	case PhasePaused:
		s.cfg.Logger.Info("resuming", "reason", reason)
		s.record(journal.Record{Kind: journal.KindResume, Detail: reason})
	default:
		return
	}

	if err := s.spawn(); err != nil {
		s.cfg.Logger.Error("respawning child failed", "error", err)
		s.exitCode = 1
		s.runErr = fmt.Errorf("respawning child: %w", err)
		s.phase = PhaseExited
		return
	}
	s.cause = pauseNone
	s.phase = PhaseRunning
}

// shutdown handles a termination request. Running forwards the signal
// to the child and arms the grace timer; Paused exits immediately with
// code 0; Terminating ignores the repeat, which makes shutdown
// idempotent.
func (s *Supervisor) shutdown(sig unix.Signal) {
	switch s.phase {
	case PhaseRunning:
		s.cfg.Logger.Info("shutting down",
			"signal", unix.SignalName(sig),
			"grace_period", s.cfg.GracePeriod,
		)
		_ = s.child.Signal(sig)
		s.grace = s.cfg.Clock.After(s.cfg.GracePeriod)
		s.phase = PhaseTerminating
	case PhasePaused:
		s.cfg.Logger.Info("shutting down while paused")
		s.exitCode = 0
		s.phase = PhaseExited
	case PhaseTerminating:
		s.cfg.Logger.Debug("termination already in progress")
	}
}

// graceExpired force-kills a child that ignored the termination signal
// for the whole grace period.
func (s *Supervisor) graceExpired() {
	if s.phase != PhaseTerminating || s.child == nil {
		return
	}
	pid := s.child.PID()
	s.cfg.Logger.Warn("grace period expired, killing child", "pid", pid)

	_ = s.child.Signal(unix.SIGKILL)
	if exit, err := s.cfg.Reaper.Wait(pid); err != nil {
		s.cfg.Logger.Warn("waiting for killed child", "pid", pid, "error", err)
		s.exitCode = 1
	} else {
		s.record(exitRecord(journal.KindExit, exit))
		s.exitCode = ExitCode(exit.Status)
	}
	s.child = nil
	s.grace = nil
	s.phase = PhaseExited
}

// forward delivers an uninterpreted signal to the child. Errors are
// expected (the child may be mid-exit) and only logged.
func (s *Supervisor) forward(sig unix.Signal) {
	if s.child == nil {
		return
	}
	if err := s.child.Signal(sig); err != nil {
		s.cfg.Logger.Debug("forwarding signal failed",
			"signal", unix.SignalName(sig), "error", err)
		return
	}
	s.cfg.Logger.Debug("forwarded signal",
		"signal", unix.SignalName(sig), "pid", s.child.PID())
}

// spawn starts a new child generation and journals it.
func (s *Supervisor) spawn() error {
	child, err := s.cfg.Launcher.Spawn(s.cfg.Command, s.cfg.Args)
	if err != nil {
		s.record(journal.Record{Kind: journal.KindSpawnFailed, Detail: err.Error()})
		return fmt.Errorf("spawning %s: %w", s.cfg.Command, err)
	}
	s.child = child
	s.cfg.Logger.Info("child started", "pid", child.PID(), "command", s.cfg.Command)
	s.record(journal.Record{
		Kind:   journal.KindSpawn,
		PID:    child.PID(),
		Detail: strings.Join(append([]string{s.cfg.Command}, s.cfg.Args...), " "),
	})
	return nil
}

// record stamps and appends a journal record. Journal failures must
// never disturb supervision; they are logged and dropped.
func (s *Supervisor) record(rec journal.Record) {
	rec.Time = s.cfg.Clock.Now()
	if err := s.cfg.Journal.Append(rec); err != nil {
		s.cfg.Logger.Warn("journal append failed", "error", err)
	}
}

// exitRecord builds the journal record for a collected exit status.
func exitRecord(kind journal.Kind, exit Exit) journal.Record {
	rec := journal.Record{Kind: kind, PID: exit.PID}
	if exit.Status.Exited() {
		code := exit.Status.ExitStatus()
		rec.ExitCode = &code
	} else {
		rec.Signaled = true
	}
	return rec
}
