// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var errEmptyName = errors.New("empty program name")

// Locate resolves the program named on the wrapper's command line.
//
// A name containing a path separator is made absolute against the working
// directory and must exist. A bare name is tried as an executable file in
// the working directory first, then searched on PATH.
func (e *Engine) Locate(name string) (Target, error) {
	return e.locate(name, false)
}

// LocateAlias resolves name for a wrapper invoked through an alias. Only
// PATH is searched, and entries that are the wrapper itself or a copy of it
// are skipped so an alias cannot dispatch back into the wrapper.
func (e *Engine) LocateAlias(name string) (Target, error) {
	return e.locate(name, true)
}

func (e *Engine) locate(name string, alias bool) (Target, error) {
	if name == "" {
		return Target{}, &ProgramNotFoundError{Name: name, Err: errEmptyName}
	}

	if hasPathSeparator(name) && !alias {
		abs, err := e.abs(name)
		if err != nil {
			return Target{}, &ProgramNotFoundError{Name: name, Err: err}
		}
		if _, err := os.Stat(abs); err != nil {
			return Target{}, &ProgramNotFoundError{Name: name, Err: err}
		}
		return newTarget(abs), nil
	}

	name = filepath.Base(name)

	if !alias {
		if local, err := e.abs(name); err == nil && e.access(local) == nil {
			return newTarget(local), nil
		}
	}

	for _, dir := range filepath.SplitList(e.getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		path, err := e.abs(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if e.access(path) != nil {
			continue
		}
		if alias && e.isSelf(path) {
			e.logger.Debug("skipping wrapper on PATH", "path", path)
			continue
		}
		return newTarget(path), nil
	}

	return Target{}, &ProgramNotFoundError{Name: name, Err: fmt.Errorf("not in working directory or PATH")}
}

func (e *Engine) abs(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	wd, err := e.getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(wd, path), nil
}

// isSelf reports whether path is the wrapper executable or a byte-identical
// copy of it installed elsewhere.
func (e *Engine) isSelf(path string) bool {
	if e.self == "" {
		return false
	}
	self, err := os.Stat(e.self)
	if err != nil {
		return false
	}
	other, err := os.Stat(path)
	if err != nil {
		return false
	}
	if os.SameFile(self, other) {
		return true
	}
	if !other.Mode().IsRegular() || other.Size() != self.Size() {
		return false
	}
	same, err := sameContent(e.self, path)
	if err != nil {
		e.logger.Debug("cannot compare with wrapper", "path", path, "error", err)
		return false
	}
	return same
}

// sameContent compares two files of equal size chunk by chunk.
func sameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, 32<<10)
	bufB := make([]byte, 32<<10)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		endA, endB := isEOF(errA), isEOF(errB)
		if errA != nil && !endA {
			return false, errA
		}
		if errB != nil && !endB {
			return false, errB
		}
		if endA != endB || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if endA {
			return true, nil
		}
	}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func newTarget(path string) Target {
	return Target{Path: path, Name: filepath.Base(path)}
}

func hasPathSeparator(name string) bool {
	return strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator)
}
