// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// Package exehash fingerprints the child executable. The supervisor
// logs and journals the resolved path and SHA-256 digest of the
// command it spawns, so a sandbox run can later be tied to the exact
// binary that ran in it.
package exehash
