// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package proctree

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrGone reports that a process disappeared between listing and
// inspection. Callers treat it as "ignore this process", not as a
// failure: processes exit mid-scan all the time.
var ErrGone = errors.New("process no longer exists")

// Tree lists visible process IDs and resolves parent PIDs.
type Tree interface {
	// PIDs returns every process ID currently visible.
	PIDs() ([]int, error)

	// Parent returns the parent PID of pid. Returns ErrGone (wrapped)
	// when the process vanished.
	Parent(pid int) (int, error)
}

// Proc is a Tree backed by a procfs mount.
type Proc struct {
	root string
}

// OpenProc returns a Tree reading from root. An empty root means
// /proc. The root is injectable so tests can point at a synthetic
// directory.
func OpenProc(root string) *Proc {
	if root == "" {
		root = "/proc"
	}
	return &Proc{root: root}
}

// PIDs returns the numeric entries of the procfs root.
func (p *Proc) PIDs() ([]int, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", p.root, err)
	}

	var pids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// Parent reads the PPid field from the process's status record.
func (p *Proc) Parent(pid int) (int, error) {
	path := filepath.Join(p.root, strconv.Itoa(pid), "status")
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("pid %d: %w", pid, ErrGone)
		}
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		value, ok := strings.CutPrefix(line, "PPid:")
		if !ok {
			continue
		}
		ppid, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("parsing PPid from %s: %w", path, err)
		}
		return ppid, nil
	}
	if err := scanner.Err(); err != nil {
		// A read error on procfs usually means the process exited
		// while we were reading.
		return 0, fmt.Errorf("pid %d: %w", pid, ErrGone)
	}
	return 0, fmt.Errorf("no PPid field in %s", path)
}
