// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marchexec/march/internal/level"
)

// DefaultSuffix joins the parent directory name and the level token.
const DefaultSuffix = "-march-"

type (
	// Target is the program the wrapper was asked to run.
	Target struct {
		// Path is absolute and cleaned. Symlinks are not resolved, so
		// candidates are looked up next to the path the user invoked.
		Path string
		// Name is the base name of Path.
		Name string
	}

	// Candidate is a constructed variant path for one level.
	Candidate struct {
		Level level.Level
		Path  string
	}

	// Probe records why a candidate was or was not chosen.
	Probe struct {
		Candidate Candidate
		// Err is nil for the winning candidate.
		Err error
	}

	// Decision is the single executable chosen for an invocation.
	Decision struct {
		Target Target
		// Path is the executable to run.
		Path string
		// Level is the level of the chosen variant, Baseline for the original.
		Level level.Level
		// Argv is the argument vector with argv[0] set to Path.
		Argv []string
		// Env is the environment, unchanged.
		Env []string
		// Probed lists the candidates examined, in probe order.
		Probed []Probe
	}

	// Execer transfers control to a decision. On success it does not
	// return on platforms with process image replacement.
	Execer interface {
		Exec(ctx context.Context, d *Decision) error
	}

	// ExecFunc adapts a function to the Execer interface.
	ExecFunc func(ctx context.Context, d *Decision) error

	// Engine performs lookup, candidate probing and hand-off.
	Engine struct {
		suffix string
		logger *slog.Logger
		execer Execer
		access func(path string) error
		getenv func(string) string
		getwd  func() (string, error)
		self   string
	}

	// Option configures an Engine.
	Option func(*Engine)
)

// Exec calls f.
func (f ExecFunc) Exec(ctx context.Context, d *Decision) error { return f(ctx, d) }

// WithSuffix sets the sibling directory suffix. Empty keeps DefaultSuffix.
func WithSuffix(suffix string) Option {
	return func(e *Engine) {
		if suffix != "" {
			e.suffix = suffix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithExecer replaces the process replacement step.
func WithExecer(x Execer) Option {
	return func(e *Engine) { e.execer = x }
}

// WithGetenv sets the environment lookup used for PATH.
func WithGetenv(getenv func(string) string) Option {
	return func(e *Engine) { e.getenv = getenv }
}

// WithWorkingDir pins the directory relative names are resolved against.
func WithWorkingDir(dir string) Option {
	return func(e *Engine) { e.getwd = func() (string, error) { return dir, nil } }
}

// WithSelf names the wrapper's own executable. PATH entries that resolve to
// the same file, or hold the same bytes, are skipped by LocateAlias.
func WithSelf(path string) Option {
	return func(e *Engine) { e.self = path }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		suffix: DefaultSuffix,
		logger: slog.Default(),
		execer: ExecFunc(execve),
		access: checkExecutable,
		getenv: os.Getenv,
		getwd:  os.Getwd,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CandidatePath builds the variant path of t for lvl. It has no side effects.
func (e *Engine) CandidatePath(t Target, lvl level.Level) string {
	parent := filepath.Dir(t.Path)
	sibling := filepath.Base(parent) + e.suffix + lvl.String()
	return filepath.Join(filepath.Dir(parent), sibling, t.Name)
}

// Candidates returns the variant paths to probe for lvl, highest first.
// Baseline is never a candidate: it is served by the original program.
func (e *Engine) Candidates(t Target, lvl level.Level) []Candidate {
	levels := lvl.Descending()
	out := make([]Candidate, 0, len(levels))
	for _, l := range levels {
		out = append(out, Candidate{Level: l, Path: e.CandidatePath(t, l)})
	}
	return out
}

// Decide picks the executable for t at lvl. argv is the argument vector as
// received, argv[0] being the program as the user named it; env is passed
// through untouched.
func (e *Engine) Decide(t Target, lvl level.Level, argv, env []string) (*Decision, error) {
	d := &Decision{Target: t, Env: env}

	for _, c := range e.Candidates(t, lvl) {
		err := e.access(c.Path)
		d.Probed = append(d.Probed, Probe{Candidate: c, Err: err})
		if err != nil {
			e.logger.Debug("skipping candidate", "path", c.Path, "level", c.Level.String(), "reason", err)
			continue
		}
		d.Path, d.Level = c.Path, c.Level
		d.Argv = rewriteArgv(c.Path, argv)
		return d, nil
	}

	if err := e.access(t.Path); err != nil {
		if IsNotExist(err) {
			return nil, &ProgramNotFoundError{Name: t.Path, Err: err}
		}
		return nil, &NotExecutableError{Path: t.Path, Err: err}
	}
	d.Path, d.Level = t.Path, level.Baseline
	d.Argv = rewriteArgv(t.Path, argv)
	return d, nil
}

// Dispatch decides and hands off. On platforms with exec it only returns on
// failure. There is no retry: a failed exec is reported as is.
func (e *Engine) Dispatch(ctx context.Context, t Target, lvl level.Level, argv, env []string) error {
	d, err := e.Decide(t, lvl, argv, env)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dispatch %s: %w", d.Path, err)
	}
	e.logger.Info("dispatching", "program", t.Path, "path", d.Path, "level", d.Level.String())
	return e.execer.Exec(ctx, d)
}

// rewriteArgv returns a copy of argv whose first element is path.
func rewriteArgv(path string, argv []string) []string {
	out := make([]string, 0, max(len(argv), 1))
	out = append(out, path)
	if len(argv) > 1 {
		out = append(out, argv[1:]...)
	}
	return out
}
