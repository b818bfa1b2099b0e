// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that fail the test
// immediately on setup errors, reducing boilerplate.
//
// Common helpers include file creation with a pinned mode (MustWriteFile,
// MustWriteScript) and configuration directory isolation (SetConfigHome).
package testutil
