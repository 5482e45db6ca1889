// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package proctree

import (
	"fmt"
	"sync"
)

// Fake is an in-memory Tree for tests. Processes are added with their
// parent PID; removing one makes subsequent Parent calls return
// ErrGone, which simulates a process vanishing mid-scan.
//
// Fake is safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	parents map[int]int
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{parents: make(map[int]int)}
}

// Add registers pid with the given parent.
func (f *Fake) Add(pid, parent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parents[pid] = parent
}

// Remove deletes pid. The pid stays out of PIDs and Parent returns
// ErrGone for it.
func (f *Fake) Remove(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.parents, pid)
}

// PIDs returns the registered process IDs.
func (f *Fake) PIDs() ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pids := make([]int, 0, len(f.parents))
	for pid := range f.parents {
		pids = append(pids, pid)
	}
	return pids, nil
}

// Parent resolves pid's registered parent.
func (f *Fake) Parent(pid int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, ok := f.parents[pid]
	if !ok {
		return 0, fmt.Errorf("pid %d: %w", pid, ErrGone)
	}
	return parent, nil
}
