// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// FileName is the journal file created inside the state directory.
const FileName = "init-journal.cbor"

// Kind classifies a lifecycle event.
type Kind string

// Lifecycle event kinds, in the order a typical run produces them.
const (
	KindSpawn       Kind = "spawn"
	KindExit        Kind = "exit"
	KindPause       Kind = "pause"
	KindResume      Kind = "resume"
	KindOrphanReap  Kind = "orphan-reap"
	KindAttach      Kind = "attach"
	KindDetach      Kind = "detach"
	KindShutdown    Kind = "shutdown"
	KindSpawnFailed Kind = "spawn-failed"
)

// Record is one journal entry.
type Record struct {
	// Time is when the supervisor observed the event.
	Time time.Time `cbor:"time"`

	// Kind classifies the event.
	Kind Kind `cbor:"kind"`

	// PID is the process the event concerns, when there is one.
	PID int `cbor:"pid,omitempty"`

	// ExitCode is set for exit and orphan-reap events where the
	// process exited normally.
	ExitCode *int `cbor:"exit_code,omitempty"`

	// Signaled is true when the process died from an uncaught signal
	// rather than exiting.
	Signaled bool `cbor:"signaled,omitempty"`

	// Detail carries free-form context: the spawned command, the
	// pause reason, the spawn error.
	Detail string `cbor:"detail,omitempty"`
}

var encMode cbor.EncMode

func init() {
	options := cbor.CoreDetEncOptions()
	// Sub-second precision matters at a 100ms tick; the deterministic
	// default truncates timestamps to whole seconds.
	options.Time = cbor.TimeUnixMicro
	mode, err := options.EncMode()
	if err != nil {
		panic("journal: CBOR encoder initialization failed: " + err.Error())
	}
	encMode = mode
}

// Journal appends records to the journal file. Safe for concurrent
// use, though the supervisor writes from a single goroutine.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	enc  *cbor.Encoder
}

// Open creates (or appends to) the journal file in dir, creating dir
// if needed.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &Journal{file: file, enc: encMode.NewEncoder(file)}, nil
}

// Append writes one record. A nil Journal discards the record.
func (j *Journal) Append(rec Record) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("appending journal record: %w", err)
	}
	return nil
}

// Close flushes and closes the journal file. A nil Journal is a no-op.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.file.Sync(); err != nil {
		j.file.Close()
		return fmt.Errorf("syncing journal: %w", err)
	}
	return j.file.Close()
}

// Read decodes every record from the journal file at path. Used by
// tests and post-mortem tooling.
func Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer file.Close()

	var records []Record
	dec := cbor.NewDecoder(file)
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("decoding journal record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}
