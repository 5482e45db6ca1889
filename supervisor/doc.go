// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor implements the PID-1 control loop: it spawns the
// single main child command, reaps every descendant that terminates
// inside the namespace, routes outside signals to the child, and
// pauses or resumes the child when a debugger enters or leaves the
// namespace.
//
// A single goroutine owns the child handle and all state transitions
// (Starting → Running ⇄ Paused → Terminating → Exited). Signals are
// received on a channel registered with os/signal.Notify, so no work
// ever happens in asynchronous handler context. The OS-facing seams —
// launcher, reaper, process tree, clock — are interfaces with fake
// implementations, which keeps the state machine deterministic under
// test.
package supervisor
