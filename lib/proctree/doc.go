// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// Package proctree provides a narrow read-only view of the process
// tree: list the visible process IDs, and resolve a process's parent
// PID. The supervisor's attach detector is a pure query over this
// capability, so detection logic is unit-testable against a Fake
// instead of a live /proc.
//
// The real implementation reads the procfs status records
// (/proc/<pid>/status, PPid field). Nothing is ever written.
package proctree
