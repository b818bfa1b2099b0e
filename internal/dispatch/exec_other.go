// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package dispatch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
)

var errNotRegular = errors.New("not a regular file")

// checkExecutable reports whether path is a regular file. Platforms without
// execute permission bits rely on the loader to reject non-programs.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return &fs.PathError{Op: "access", Path: path, Err: errNotRegular}
	}
	return nil
}

// execve runs the decision as a child with inherited stdio, waits for it,
// and reports a non-zero exit as *ExitStatusError so the caller can exit
// with the same code. The process image cannot be replaced here.
func execve(ctx context.Context, d *Decision) error {
	cmd := exec.CommandContext(ctx, d.Path)
	cmd.Args = d.Argv
	cmd.Env = d.Env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitStatusError{Path: d.Path, Code: exitErr.ExitCode()}
	}
	return &ExecError{Path: d.Path, Err: err}
}
