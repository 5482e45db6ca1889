// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"
	"log/slog"

	"github.com/psm14/suspendable-init/lib/proctree"
)

// maxAncestorDepth bounds the parent-chain walk. A chain deeper than
// this means PID reuse produced a cycle mid-scan; the walk gives up
// and treats the process as foreign.
const maxAncestorDepth = 512

// Detector decides whether a process that is not a descendant of the
// init process is visible in the namespace — the evidence that an
// external tool (debugger, inspector) has entered it. Inside a
// correctly isolated namespace every visible process descends from
// PID 1, so a single broken ancestor chain is a positive.
//
// The scan is O(processes × chain depth) and runs once per poll tick,
// never per signal.
type Detector struct {
	// Tree is the process-tree capability to scan.
	Tree proctree.Tree

	// InitPID is this init process's own PID as seen in Tree
	// (1 inside a PID namespace).
	InitPID int

	// Logger receives scan failures. Required.
	Logger *slog.Logger
}

// Attached reports whether a foreign process is visible. A scan that
// cannot list the tree at all reports false: detection must never
// produce a pause out of a transient procfs error.
func (d *Detector) Attached() bool {
	pids, err := d.Tree.PIDs()
	if err != nil {
		d.Logger.Warn("process scan failed", "error", err)
		return false
	}
	for _, pid := range pids {
		if pid == d.InitPID {
			continue
		}
		if !d.descendsFromInit(pid) {
			return true
		}
	}
	return false
}

// descendsFromInit walks pid's ancestor chain one parent at a time
// until it reaches InitPID or fails to resolve an ancestor. A process
// that vanishes mid-walk counts as a descendant: exiting processes are
// not evidence of attachment.
func (d *Detector) descendsFromInit(pid int) bool {
	for depth := 0; depth < maxAncestorDepth; depth++ {
		parent, err := d.Tree.Parent(pid)
		if err != nil {
			if !errors.Is(err, proctree.ErrGone) {
				d.Logger.Warn("resolving ancestor failed", "pid", pid, "error", err)
			}
			return true
		}
		if parent == d.InitPID {
			return true
		}
		if parent == 0 {
			// Reached the namespace root without meeting init. The
			// process was re-parented outside our subtree: foreign.
			return false
		}
		pid = parent
	}
	return false
}
