// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for the supervisor's poll loop and kill
// grace timer. Production code injects Real(); tests inject Fake() and
// advance time explicitly, so tick-driven behavior (attach polling,
// safety-net reaping, the termination grace period) is deterministic
// under test.
package clock
