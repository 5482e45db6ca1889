// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	start := time.Date(2026, 4, 2, 9, 30, 0, 250000000, time.UTC)
	code := 7
	events := []Record{
		{Time: start, Kind: KindSpawn, PID: 42, Detail: "/bin/server --port 80"},
		{Time: start.Add(time.Second), Kind: KindOrphanReap, PID: 57, Signaled: true},
		{Time: start.Add(2 * time.Second), Kind: KindExit, PID: 42, ExitCode: &code},
	}
	for _, rec := range events {
		if err := j.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := Read(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("Read returned %d records, want %d", len(got), len(events))
	}
	for i, want := range events {
		if got[i].Kind != want.Kind || got[i].PID != want.PID {
			t.Errorf("record %d = %+v, want kind %s pid %d", i, got[i], want.Kind, want.PID)
		}
		if !got[i].Time.Equal(want.Time) {
			t.Errorf("record %d time = %v, want %v", i, got[i].Time, want.Time)
		}
	}
	if got[2].ExitCode == nil || *got[2].ExitCode != 7 {
		t.Errorf("exit record code = %v, want 7", got[2].ExitCode)
	}
	if !got[1].Signaled {
		t.Error("orphan-reap record should be marked signaled")
	}
}

func TestAppendToExisting(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Append(Record{Time: time.Now(), Kind: KindSpawn, PID: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and append: the earlier record must survive.
	j, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := j.Append(Record{Time: time.Now(), Kind: KindShutdown}); err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := Read(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Read returned %d records, want 2", len(got))
	}
	if got[0].Kind != KindSpawn || got[1].Kind != KindShutdown {
		t.Errorf("kinds = %s, %s; want spawn, shutdown", got[0].Kind, got[1].Kind)
	}
}

func TestNilJournal(t *testing.T) {
	var j *Journal
	if err := j.Append(Record{Kind: KindSpawn}); err != nil {
		t.Errorf("nil Journal Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("nil Journal Close: %v", err)
	}
}

func TestOpenCreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	j, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("state dir permissions = %04o, want 0700", perm)
	}
}
