// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal records supervisor lifecycle events (spawn, exit,
// pause, resume, orphan reaps, shutdown) as an append-only CBOR stream
// in the state directory. The journal is a post-mortem aid for
// sandbox runs: it answers "what did init do and when" after the
// namespace is gone.
//
// Encoding is Core Deterministic CBOR (RFC 8949 §4.2) so identical
// event sequences produce identical bytes. A nil *Journal is valid and
// discards everything, which is how the supervisor runs when no state
// directory is configured.
package journal
