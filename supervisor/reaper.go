// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Exit is one terminated process collected by the reaper.
type Exit struct {
	PID    int
	Status unix.WaitStatus
}

// Reaper collects terminated child statuses. Both methods are called
// only from the control loop goroutine.
type Reaper interface {
	// Reap drains every currently waitable child without blocking and
	// returns what it collected. "No waitable child" and "no children
	// at all" both end the drain normally.
	Reap() []Exit

	// Wait blocks until the process with the given PID terminates and
	// returns its status. Used after the supervisor has deliberately
	// killed the tracked child and must not proceed until it is
	// collected.
	Wait(pid int) (Exit, error)
}

// OSReaper reaps via wait4. Because this process is PID 1 in its
// namespace (or a subreaper outside one), wait4(-1) also collects
// orphans re-parented to it, which is what keeps the namespace free of
// zombies.
type OSReaper struct {
	// Logger receives unexpected wait errors. Required.
	Logger *slog.Logger
}

// Reap implements Reaper.
func (r *OSReaper) Reap() []Exit {
	var exits []Exit
	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			// No children exist. Normal when the tracked child is the
			// only descendant and has already been collected.
			return exits
		case err != nil:
			// Abandon this drain; the next tick or SIGCHLD retries.
			// Never spin and never block here.
			r.Logger.Warn("wait4 failed, abandoning reap pass", "error", err)
			return exits
		case pid == 0:
			// Children exist but none is waitable right now.
			return exits
		default:
			exits = append(exits, Exit{PID: pid, Status: status})
		}
	}
}

// Wait implements Reaper.
func (r *OSReaper) Wait(pid int) (Exit, error) {
	for {
		var status unix.WaitStatus
		got, err := unix.Wait4(pid, &status, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return Exit{}, fmt.Errorf("waiting for pid %d: %w", pid, err)
		}
		return Exit{PID: got, Status: status}, nil
	}
}

// ExitCode translates a child's wait status into the supervisor's own
// exit code: the child's exit code (truncated to a byte) on normal
// exit, or a fixed generic 1 when the child died from an uncaught
// signal. The translation is deliberately lossy — encoding the signal
// number would change the observable exit codes.
func ExitCode(status unix.WaitStatus) int {
	if status.Exited() {
		return status.ExitStatus() & 0xff
	}
	return 1
}
