// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the wrapper's packages.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Exit codes of the wrapper itself. A successful hand-off has no exit code
// of its own: the process becomes the target program.
const (
	// ExitSuccess is returned for --help, --version and --dry-run.
	ExitSuccess ExitCode = 0
	// ExitUsage is returned for invalid wrapper flags.
	ExitUsage ExitCode = 1
	// ExitNotExecutable follows the shell convention for a program that
	// was found but could not be run.
	ExitNotExecutable ExitCode = 126
	// ExitNotFound follows the shell convention for a missing program.
	ExitNotFound ExitCode = 127
	// ExitInterrupted is 128+SIGINT, returned when a signal arrives before
	// the hand-off.
	ExitInterrupted ExitCode = 130
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// Normalize maps an arbitrary child status onto 0-255. Windows reports
// 32-bit statuses; values outside the range become 1.
func (c ExitCode) Normalize() ExitCode {
	if c.Validate() != nil {
		return ExitUsage
	}
	return c
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
