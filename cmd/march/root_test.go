// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/marchexec/march/internal/issue"
	"github.com/marchexec/march/pkg/types"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestIsAlias(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg0 string
		want bool
	}{
		{"march", false},
		{"/usr/bin/march", false},
		{`C:\bin\march.exe`, false},
		{"./march", false},
		{"foo", true},
		{"/home/me/bin/python3", true},
		{"march-v3", true},
	}

	for _, tt := range tests {
		t.Run(tt.arg0, func(t *testing.T) {
			t.Parallel()
			if got := isAlias(tt.arg0); got != tt.want {
				t.Errorf("isAlias(%q) = %v, want %v", tt.arg0, got, tt.want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	ae := issue.NewErrorContext().
		WithOperation("run program").
		WithSuggestion("Check the program name and $PATH").
		WithIssue(issue.ProgramNotFoundId).
		Wrap(errors.New("foo: program not found")).
		BuildError()
	err := &ExitError{Code: types.ExitNotFound, Err: ae}

	t.Run("single line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		(&App{}).renderError(&buf, err)
		out := buf.String()
		if !strings.Contains(out, "failed to run program: foo: program not found") {
			t.Errorf("output missing message:\n%s", out)
		}
		if strings.Count(strings.TrimSpace(out), "\n") != 0 {
			t.Errorf("non-verbose output should be one line:\n%s", out)
		}
	})

	t.Run("verbose adds guide", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		(&App{verbose: true}).renderError(&buf, err)
		out := buf.String()
		for _, want := range []string{"Check the program name", "Error chain:", "symlink"} {
			if !strings.Contains(out, want) {
				t.Errorf("verbose output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("silent exit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		(&App{}).renderError(&buf, &ExitError{Code: 3})
		if buf.Len() != 0 {
			t.Errorf("silent ExitError printed %q", buf.String())
		}
	})
}

func TestExitError(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := &ExitError{Code: types.ExitNotExecutable, Err: inner}
	if err.Error() != "boom" || !errors.Is(err, inner) {
		t.Errorf("ExitError should wrap its cause, got %q", err)
	}
	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q", got)
	}
}
