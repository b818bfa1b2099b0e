// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetConfigHome points the per-user configuration directory at dir and
// returns the directory that should then hold app's files.
// It uses t.Setenv, so callers cannot run in parallel.
//
// Platform handling:
//   - Windows: Sets APPDATA
//   - macOS: Sets HOME (~/Library/Application Support)
//   - Linux/others: Sets XDG_CONFIG_HOME
func SetConfigHome(t testing.TB, dir, app string) string {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		t.Setenv("APPDATA", dir)
		return filepath.Join(dir, app)
	case "darwin":
		t.Setenv("HOME", dir)
		return filepath.Join(dir, "Library", "Application Support", app)
	default:
		t.Setenv("XDG_CONFIG_HOME", dir)
		return filepath.Join(dir, app)
	}
}
