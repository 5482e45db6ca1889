// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/psm14/suspendable-init/lib/exehash"
)

// Child is a handle to the spawned main process. The supervisor owns
// exactly one Child at a time; its exit status is always collected
// through the Reaper, never through the handle.
type Child interface {
	// PID returns the child's process ID.
	PID() int

	// Signal delivers sig to the child. Failure usually means the
	// child already exited; callers treat it as harmless.
	Signal(sig unix.Signal) error
}

// Launcher starts the main child command.
type Launcher interface {
	// Spawn starts command with args and returns a live handle. The
	// caller becomes the wait-parent of the new process.
	Spawn(command string, args []string) (Child, error)
}

// ExecLauncher spawns the child via os/exec with inherited stdio.
type ExecLauncher struct {
	// Logger receives the resolved path and digest of the spawned
	// binary. Required.
	Logger *slog.Logger
}

// Spawn implements Launcher.
//
// Stdio is passed through as raw file descriptors, so no copier
// goroutines exist and nothing here ever calls cmd.Wait — the reaper's
// wait-any loop is the only place child statuses are collected, which
// keeps the "waited exactly once" invariant in one function.
func (l *ExecLauncher) Spawn(command string, args []string) (Child, error) {
	// Fingerprint before spawn so the journal ties the run to the
	// exact binary. Failure to hash is not failure to spawn: the
	// command may still resolve differently inside exec (for scripts,
	// setuid wrappers, and the like), and a missing digest is only a
	// diagnostic gap.
	if path, digest, err := exehash.Fingerprint(command); err == nil {
		l.Logger.Info("child binary resolved", "path", path, "sha256", digest)
	} else {
		l.Logger.Warn("child binary fingerprint unavailable", "command", command, "error", err)
	}

	cmd := exec.Command(command, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", command, err)
	}
	return &execChild{process: cmd.Process}, nil
}

type execChild struct {
	process *os.Process
}

func (c *execChild) PID() int { return c.process.Pid }

func (c *execChild) Signal(sig unix.Signal) error {
	return c.process.Signal(sig)
}
