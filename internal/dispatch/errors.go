// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	// ErrProgramNotFound is the sentinel error wrapped by ProgramNotFoundError.
	ErrProgramNotFound = errors.New("program not found")
	// ErrNotExecutable is the sentinel error wrapped by NotExecutableError.
	ErrNotExecutable = errors.New("program not executable")
	// ErrExecFailed is the sentinel error wrapped by ExecError.
	ErrExecFailed = errors.New("exec failed")
)

type (
	// ProgramNotFoundError is returned when the target cannot be resolved
	// to an existing file.
	ProgramNotFoundError struct {
		Name string
		Err  error
	}

	// NotExecutableError is returned when the original program exists but
	// cannot be executed and no candidate was usable either.
	NotExecutableError struct {
		Path string
		Err  error
	}

	// ExecError is returned when the process replacement itself fails.
	// It unwraps to both ErrExecFailed and the OS error.
	ExecError struct {
		Path string
		Err  error
	}

	// ExitStatusError reports the non-zero exit status of a spawned child
	// on platforms where the wrapper cannot replace its own image.
	ExitStatusError struct {
		Path string
		Code int
	}
)

// Error implements the error interface.
func (e *ProgramNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, ErrProgramNotFound, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Name, ErrProgramNotFound)
}

// Unwrap returns ErrProgramNotFound and the underlying cause.
func (e *ProgramNotFoundError) Unwrap() []error { return unwrapPair(ErrProgramNotFound, e.Err) }

// Error implements the error interface.
func (e *NotExecutableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, ErrNotExecutable, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, ErrNotExecutable)
}

// Unwrap returns ErrNotExecutable and the underlying cause.
func (e *NotExecutableError) Unwrap() []error { return unwrapPair(ErrNotExecutable, e.Err) }

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("exec %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrExecFailed and the OS error.
func (e *ExecError) Unwrap() []error { return unwrapPair(ErrExecFailed, e.Err) }

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Path, e.Code)
}

func unwrapPair(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}

// IsNotExist reports whether err means the path is missing, including a
// parent component that is not a directory (ENOTDIR).
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
