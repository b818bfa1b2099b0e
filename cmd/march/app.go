// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/marchexec/march/internal/config"
	"github.com/marchexec/march/internal/cpulevel"
	"github.com/marchexec/march/internal/dispatch"
)

type (
	// App wires the CLI to its collaborators. Every command path, including
	// alias mode, runs through the same App.
	App struct {
		Config  ConfigProvider
		Prober  cpulevel.Prober
		Execer  dispatch.Execer
		stdout  io.Writer
		stderr  io.Writer
		environ []string
		self    string
		workdir string

		configDirs []string
		// verbose is latched by Run so the error handler, which runs after
		// the command returns, renders at the same verbosity.
		verbose bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Prober cpulevel.Prober
		// Execer replaces process image replacement, for tests.
		Execer dispatch.Execer
		Stdout io.Writer
		Stderr io.Writer
		// Environ is passed to the program and searched for PATH.
		Environ []string
		// Self is the wrapper's own executable, skipped in alias mode.
		Self string
		// Workdir overrides the working directory used for lookup.
		Workdir string
		// ConfigDirs overrides the config search directories.
		ConfigDirs []string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Prober == nil {
		deps.Prober = cpulevel.NewProber()
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ()
	}
	if deps.Self == "" {
		if self, err := os.Executable(); err == nil {
			deps.Self = self
		}
	}

	return &App{
		Config:     deps.Config,
		Prober:     deps.Prober,
		Execer:     deps.Execer,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		environ:    deps.Environ,
		self:       deps.Self,
		workdir:    deps.Workdir,
		configDirs: deps.ConfigDirs,
	}
}

// getenv looks key up in the App's environment rather than the process's,
// so lookup and the program see the same PATH.
func (a *App) getenv(key string) string {
	for _, kv := range a.environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v
		}
	}
	return ""
}

func (a *App) engineOptions() []dispatch.Option {
	opts := []dispatch.Option{
		dispatch.WithGetenv(a.getenv),
		dispatch.WithSelf(a.self),
	}
	if a.Execer != nil {
		opts = append(opts, dispatch.WithExecer(a.Execer))
	}
	if a.workdir != "" {
		opts = append(opts, dispatch.WithWorkingDir(a.workdir))
	}
	return opts
}
