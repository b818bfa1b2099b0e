// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// scriptBody is a program that runs anywhere /bin/sh exists.
const scriptBody = "#!/bin/sh\nexit 0\n"

// MustWriteFile writes content to path, creating parent directories. The
// mode is applied after writing so the umask does not affect it.
// The test fails immediately if any step fails.
func MustWriteFile(t testing.TB, path, content string, mode os.FileMode) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatalf("failed to chmod %s: %v", path, err)
	}
	return path
}

// MustWriteScript writes a trivial shell script to path with mode.
func MustWriteScript(t testing.TB, path string, mode os.FileMode) string {
	t.Helper()
	return MustWriteFile(t, path, scriptBody, mode)
}
