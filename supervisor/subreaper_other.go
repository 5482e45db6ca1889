// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package supervisor

// EnsureReaping is a no-op outside Linux: there is no subreaper
// attribute, so orphans of the child are only adopted when this
// process really runs as PID 1 of its namespace.
func EnsureReaping() error { return nil }
