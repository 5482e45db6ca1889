// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds channel assertion helpers shared by the
// supervisor tests. The helpers wrap the select-with-timeout safety
// valve so individual tests never hang the suite when the code under
// test fails to send or receive.
package testutil
