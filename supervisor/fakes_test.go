// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// exited builds a Linux wait status for a normal exit with the given
// code.
func exited(code int) unix.WaitStatus {
	return unix.WaitStatus(code << 8)
}

// signaled builds a Linux wait status for death by signal.
func signaled(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(sig)
}

// fakeChild records the signals delivered to it.
type fakeChild struct {
	pid     int
	signals chan unix.Signal
}

func (c *fakeChild) PID() int { return c.pid }

func (c *fakeChild) Signal(sig unix.Signal) error {
	c.signals <- sig
	return nil
}

// fakeLauncher hands out fakeChildren with sequential PIDs and
// announces each spawn on the spawned channel. Spawn errors are
// scripted per call index (0-based).
type fakeLauncher struct {
	mu       sync.Mutex
	nextPID  int
	calls    int
	failures map[int]error
	spawned  chan *fakeChild
}

func newFakeLauncher(firstPID int) *fakeLauncher {
	return &fakeLauncher{
		nextPID:  firstPID,
		failures: make(map[int]error),
		spawned:  make(chan *fakeChild, 8),
	}
}

func (l *fakeLauncher) failCall(index int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[index] = err
}

func (l *fakeLauncher) Spawn(command string, args []string) (Child, error) {
	l.mu.Lock()
	call := l.calls
	l.calls++
	if err, ok := l.failures[call]; ok {
		l.mu.Unlock()
		return nil, err
	}
	child := &fakeChild{pid: l.nextPID, signals: make(chan unix.Signal, 16)}
	l.nextPID++
	l.mu.Unlock()

	l.spawned <- child
	return child, nil
}

// fakeReaper serves scripted exits. Reap drains the queue; Wait serves
// from a per-PID table and fails when no result was scripted.
type fakeReaper struct {
	mu    sync.Mutex
	queue []Exit
	waits map[int]Exit
}

func newFakeReaper() *fakeReaper {
	return &fakeReaper{waits: make(map[int]Exit)}
}

func (r *fakeReaper) push(exits ...Exit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, exits...)
}

func (r *fakeReaper) setWait(pid int, exit Exit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits[pid] = exit
}

func (r *fakeReaper) Reap() []Exit {
	r.mu.Lock()
	defer r.mu.Unlock()
	exits := r.queue
	r.queue = nil
	return exits
}

func (r *fakeReaper) Wait(pid int) (Exit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exit, ok := r.waits[pid]
	if !ok {
		return Exit{}, fmt.Errorf("no such child %d", pid)
	}
	delete(r.waits, pid)
	return exit, nil
}
