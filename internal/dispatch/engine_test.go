// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marchexec/march/internal/level"
	"github.com/marchexec/march/internal/testutil"
)

// tree is a throwaway install layout rooted in a temp dir.
type tree struct {
	t    *testing.T
	root string
}

func newTree(t *testing.T) *tree {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("execute permission bits are not supported on windows")
	}
	return &tree{t: t, root: t.TempDir()}
}

// file writes rel below the root with the given mode and returns its path.
func (tr *tree) file(rel string, mode os.FileMode) string {
	tr.t.Helper()
	return testutil.MustWriteScript(tr.t, tr.path(rel), mode)
}

func (tr *tree) path(rel string) string {
	return filepath.Join(tr.root, filepath.FromSlash(rel))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithLogger(quietLogger()),
		WithExecer(ExecFunc(func(context.Context, *Decision) error {
			return errors.New("unexpected exec")
		})),
	}
	return New(append(base, opts...)...)
}

func TestCandidatePath(t *testing.T) {
	t.Parallel()

	target := Target{Path: "/usr/bin/foo", Name: "foo"}

	tests := []struct {
		name   string
		suffix string
		lvl    level.Level
		want   string
	}{
		{"default suffix", "", level.V3, "/usr/bin-march-v3/foo"},
		{"v2", "", level.V2, "/usr/bin-march-v2/foo"},
		{"short suffix", "-", level.V4, "/usr/bin-v4/foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(WithSuffix(tt.suffix))
			if got := e.CandidatePath(target, tt.lvl); got != filepath.FromSlash(tt.want) {
				t.Errorf("CandidatePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCandidates_Order(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	target := Target{Path: "/opt/app/bin/tool", Name: "tool"}

	want := []Candidate{
		{Level: level.V4, Path: filepath.FromSlash("/opt/app/bin-march-v4/tool")},
		{Level: level.V3, Path: filepath.FromSlash("/opt/app/bin-march-v3/tool")},
		{Level: level.V2, Path: filepath.FromSlash("/opt/app/bin-march-v2/tool")},
	}
	if diff := cmp.Diff(want, e.Candidates(target, level.V4)); diff != "" {
		t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
	}
	if got := e.Candidates(target, level.Baseline); len(got) != 0 {
		t.Errorf("Candidates(baseline) = %v, want none", got)
	}
}

func TestDecide_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		files     []string
		lvl       level.Level
		wantPath  string
		wantLevel level.Level
	}{
		{
			name:      "prefers requested level",
			files:     []string{"bin-march-v2/prog", "bin-march-v3/prog"},
			lvl:       level.V3,
			wantPath:  "bin-march-v3/prog",
			wantLevel: level.V3,
		},
		{
			name:      "falls back through missing levels",
			files:     []string{"bin-march-v2/prog"},
			lvl:       level.V4,
			wantPath:  "bin-march-v2/prog",
			wantLevel: level.V2,
		},
		{
			name:      "probed level candidate",
			files:     []string{"bin-march-v2/prog"},
			lvl:       level.V2,
			wantPath:  "bin-march-v2/prog",
			wantLevel: level.V2,
		},
		{
			name:      "never picks a level above the request",
			files:     []string{"bin-march-v4/prog"},
			lvl:       level.V3,
			wantPath:  "bin/prog",
			wantLevel: level.Baseline,
		},
		{
			name:      "baseline uses original",
			files:     []string{"bin-march-v3/prog"},
			lvl:       level.Baseline,
			wantPath:  "bin/prog",
			wantLevel: level.Baseline,
		},
		{
			name:      "no sibling directories",
			lvl:       level.V4,
			wantPath:  "bin/prog",
			wantLevel: level.Baseline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := newTree(t)
			orig := tr.file("bin/prog", 0o755)
			for _, f := range tt.files {
				tr.file(f, 0o755)
			}

			e := newTestEngine()
			d, err := e.Decide(newTarget(orig), tt.lvl, []string{"prog", "-x"}, []string{"A=1"})
			if err != nil {
				t.Fatalf("Decide() error: %v", err)
			}
			if want := tr.path(tt.wantPath); d.Path != want {
				t.Errorf("Decide().Path = %q, want %q", d.Path, want)
			}
			if d.Level != tt.wantLevel {
				t.Errorf("Decide().Level = %v, want %v", d.Level, tt.wantLevel)
			}
		})
	}
}

func TestDecide_SkipsNonExecutableCandidate(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o755)
	tr.file("bin-march-v3/prog", 0o644)
	v2 := tr.file("bin-march-v2/prog", 0o755)

	e := newTestEngine()
	d, err := e.Decide(newTarget(orig), level.V3, []string{"prog"}, nil)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Path != v2 {
		t.Errorf("Decide().Path = %q, want %q", d.Path, v2)
	}
	if len(d.Probed) != 2 || d.Probed[0].Err == nil || d.Probed[1].Err != nil {
		t.Errorf("Probed = %+v, want failed v3 then winning v2", d.Probed)
	}
}

func TestDecide_SkipsDirectoryCandidate(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o755)
	if err := os.MkdirAll(tr.path("bin-march-v2/prog"), 0o755); err != nil {
		t.Fatal(err)
	}

	d, err := newTestEngine().Decide(newTarget(orig), level.V2, []string{"prog"}, nil)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Path != orig {
		t.Errorf("Decide().Path = %q, want original %q", d.Path, orig)
	}
}

func TestDecide_OriginalNotExecutable(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o644)

	_, err := newTestEngine().Decide(newTarget(orig), level.V3, []string{"prog"}, nil)
	if !errors.Is(err, ErrNotExecutable) {
		t.Fatalf("Decide() error = %v, want ErrNotExecutable", err)
	}
	if !errors.Is(err, syscall.EACCES) {
		t.Errorf("Decide() error = %v, want it to wrap EACCES", err)
	}
}

func TestDecide_OriginalNotExecutableButCandidateIs(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o644)
	v3 := tr.file("bin-march-v3/prog", 0o755)

	d, err := newTestEngine().Decide(newTarget(orig), level.V3, []string{"prog"}, nil)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Path != v3 {
		t.Errorf("Decide().Path = %q, want %q", d.Path, v3)
	}
}

func TestDecide_OriginalVanished(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	_, err := newTestEngine().Decide(newTarget(tr.path("bin/gone")), level.V2, []string{"gone"}, nil)
	if !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("Decide() error = %v, want ErrProgramNotFound", err)
	}
}

func TestDecide_OriginalParentIsAFile(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	tr.file("bin", 0o644)
	_, err := newTestEngine().Decide(newTarget(tr.path("bin/prog")), level.V3, []string{"prog"}, nil)
	if !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("Decide() error = %v, want ErrProgramNotFound", err)
	}
	if !errors.Is(err, syscall.ENOTDIR) {
		t.Errorf("Decide() error = %v, want it to wrap ENOTDIR", err)
	}
}

func TestIsNotExist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"enoent", syscall.ENOENT, true},
		{"enotdir", syscall.ENOTDIR, true},
		{"wrapped enotdir", &ExecError{Path: "/bin/foo", Err: syscall.ENOTDIR}, true},
		{"eacces", syscall.EACCES, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNotExist(tt.err); got != tt.want {
				t.Errorf("IsNotExist(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDecide_ArgvAndEnvRoundTrip(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o755)
	v2 := tr.file("bin-march-v2/prog", 0o755)

	argv := []string{"prog", "--flag", "", "two words", "ünïcode", "-"}
	env := []string{"PATH=/usr/bin", "EMPTY=", "WEIRD=a=b=c"}
	argvCopy := append([]string(nil), argv...)

	d, err := newTestEngine().Decide(newTarget(orig), level.V2, argv, env)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}

	wantArgv := append([]string{v2}, argv[1:]...)
	if diff := cmp.Diff(wantArgv, d.Argv); diff != "" {
		t.Errorf("Argv mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(env, d.Env); diff != "" {
		t.Errorf("Env mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(argvCopy, argv); diff != "" {
		t.Errorf("caller argv mutated (-want +got):\n%s", diff)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o755)
	tr.file("bin-march-v3/prog", 0o755)
	tr.file("bin-march-v2/prog", 0o755)

	e := newTestEngine()
	first, err := e.Decide(newTarget(orig), level.V4, []string{"prog", "a"}, []string{"X=1"})
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		again, err := e.Decide(newTarget(orig), level.V4, []string{"prog", "a"}, []string{"X=1"})
		if err != nil {
			t.Fatal(err)
		}
		if again.Path != first.Path || !cmp.Equal(again.Argv, first.Argv) {
			t.Fatalf("Decide() = %q %v, previously %q %v", again.Path, again.Argv, first.Path, first.Argv)
		}
	}
}

func TestDispatch_HandsDecisionToExecer(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o755)
	v3 := tr.file("bin-march-v3/prog", 0o755)

	var got *Decision
	e := newTestEngine(WithExecer(ExecFunc(func(_ context.Context, d *Decision) error {
		got = d
		return nil
	})))

	if err := e.Dispatch(context.Background(), newTarget(orig), level.V3, []string{"prog", "x"}, []string{"K=V"}); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if got == nil || got.Path != v3 {
		t.Fatalf("execer received %+v, want path %q", got, v3)
	}
}

func TestDispatch_ExecFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o755)

	calls := 0
	e := newTestEngine(WithExecer(ExecFunc(func(_ context.Context, d *Decision) error {
		calls++
		return &ExecError{Path: d.Path, Err: syscall.ENOENT}
	})))

	err := e.Dispatch(context.Background(), newTarget(orig), level.V2, []string{"prog"}, nil)
	if !errors.Is(err, ErrExecFailed) || !errors.Is(err, syscall.ENOENT) {
		t.Fatalf("Dispatch() error = %v, want ErrExecFailed wrapping ENOENT", err)
	}
	if calls != 1 {
		t.Errorf("execer called %d times, want 1", calls)
	}
}

func TestDispatch_CanceledBeforeExec(t *testing.T) {
	t.Parallel()

	tr := newTree(t)
	orig := tr.file("bin/prog", 0o755)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestEngine().Dispatch(ctx, newTarget(orig), level.V2, []string{"prog"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Dispatch() error = %v, want context.Canceled", err)
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", &ProgramNotFoundError{Name: "foo"}, "foo: program not found"},
		{"not executable", &NotExecutableError{Path: "/bin/foo", Err: syscall.EACCES}, "/bin/foo: program not executable: permission denied"},
		{"exec", &ExecError{Path: "/bin/foo", Err: syscall.ENOENT}, "exec /bin/foo: no such file or directory"},
		{"exit status", &ExitStatusError{Path: "/bin/foo", Code: 3}, "/bin/foo: exit status 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
