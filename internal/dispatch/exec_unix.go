// SPDX-License-Identifier: MPL-2.0

//go:build unix

package dispatch

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

var errNotRegular = errors.New("not a regular file")

// checkExecutable reports whether path is a regular file the caller may
// execute. A missing file yields an error satisfying os.IsNotExist.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return &fs.PathError{Op: "access", Path: path, Err: errNotRegular}
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}

// execve replaces the current process image. It only returns on failure.
func execve(_ context.Context, d *Decision) error {
	if err := unix.Exec(d.Path, d.Argv, d.Env); err != nil {
		return &ExecError{Path: d.Path, Err: err}
	}
	return nil
}
