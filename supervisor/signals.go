// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Control signals. Pause stops the child and idles the supervisor;
// resume spawns a fresh child. Both are overridable in Config for
// environments where SIGUSR1/SIGUSR2 already mean something to the
// orchestrator.
const (
	DefaultPauseSignal  = unix.SIGUSR1
	DefaultResumeSignal = unix.SIGUSR2
)

// signalBuffer sizes the notification channel. Signals of one kind
// coalesce in the kernel, so the buffer only needs to cover bursts of
// distinct kinds between loop iterations.
const signalBuffer = 64

// subscribeSignals routes every catchable signal to ch. The Go runtime
// handler only enqueues — all interpretation, forwarding, reaping, and
// spawning happens on the control loop goroutine.
func subscribeSignals(ch chan<- os.Signal) {
	signal.Notify(ch)
}

// unsubscribeSignals restores default dispositions for ch.
func unsubscribeSignals(ch chan<- os.Signal) {
	signal.Stop(ch)
}

// isRuntimeInternal reports signals that belong to the Go runtime, not
// to the child. SIGURG is used for goroutine preemption and arrives
// constantly; forwarding it would spam the child with meaningless
// signals.
func isRuntimeInternal(sig unix.Signal) bool {
	return sig == unix.SIGURG
}
