// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// An ActionableError names the failed operation and the program or file
// involved, and may carry suggestions and a reference to a Markdown guide
// that is rendered with glamour in verbose mode.
package issue
