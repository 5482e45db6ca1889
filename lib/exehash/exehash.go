// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package exehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Fingerprint resolves command the way the launcher will (PATH lookup
// unless the name contains a separator) and returns the absolute path
// plus the hex SHA-256 digest of the file. The file is streamed
// through the hash, so binary size does not matter.
func Fingerprint(command string) (path, digest string, err error) {
	resolved, err := exec.LookPath(command)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", command, err)
	}
	absolute, err := filepath.Abs(resolved)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", resolved, err)
	}

	file, err := os.Open(absolute)
	if err != nil {
		return absolute, "", fmt.Errorf("opening %s for hashing: %w", absolute, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return absolute, "", fmt.Errorf("hashing %s: %w", absolute, err)
	}
	return absolute, hex.EncodeToString(hasher.Sum(nil)), nil
}
