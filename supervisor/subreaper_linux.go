// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package supervisor

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// EnsureReaping makes the calling process the reaping target for its
// descendants. As real PID 1 that is automatic; otherwise (development
// runs, tests, debug wrappers) the child-subreaper attribute gives the
// same orphan-adoption behavior.
func EnsureReaping() error {
	if os.Getpid() == 1 {
		return nil
	}
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("setting child subreaper: %w", err)
	}
	return nil
}
