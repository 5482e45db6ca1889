// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package exehash

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprintDirectPath(t *testing.T) {
	content := []byte("#!/bin/sh\nexit 0\n")
	path := filepath.Join(t.TempDir(), "child")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resolved, digest, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}

	want := sha256.Sum256(content)
	if digest != hex.EncodeToString(want[:]) {
		t.Errorf("digest = %s, want %x", digest, want)
	}
}

func TestFingerprintPathLookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worker")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PATH", dir)

	resolved, digest, err := Fingerprint("worker")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if digest == "" {
		t.Error("digest is empty")
	}
}

func TestFingerprintNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, _, err := Fingerprint("no-such-command")
	if err == nil {
		t.Fatal("Fingerprint should fail for an unresolvable command")
	}
}

func TestFingerprintNotExecutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plain"), []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PATH", dir)

	if _, _, err := Fingerprint("plain"); err == nil {
		t.Fatal("Fingerprint should fail for a non-executable file")
	}
}
