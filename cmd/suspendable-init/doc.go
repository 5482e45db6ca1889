// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// suspendable-init is a minimal PID-1 supervisor for containers and
// sandboxes. It spawns one main command, reaps every orphan the child
// tree produces, forwards outside signals to the child, and pauses or
// resumes the child when a debugger enters or leaves the namespace.
//
// Usage:
//
//	suspendable-init [flags] <command> [args...]
//
// Flags stop at the first non-flag argument; everything from the
// command onward is passed to the child verbatim.
package main
