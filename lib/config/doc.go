// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the supervisor configuration file.
//
// The file is located only via the SUSPENDABLE_INIT_CONFIG environment
// variable or the --config flag. There is no search path and no
// automatic discovery: an init process must behave identically across
// hosts, so configuration is either explicit and auditable or absent.
//
// Every field has a default; command-line flags override file values.
package config
