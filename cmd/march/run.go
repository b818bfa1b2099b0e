// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/marchexec/march/internal/bootparam"
	"github.com/marchexec/march/internal/config"
	"github.com/marchexec/march/internal/dispatch"
	"github.com/marchexec/march/internal/issue"
	"github.com/marchexec/march/internal/logging"
	"github.com/marchexec/march/internal/resolver"
	"github.com/marchexec/march/pkg/types"
)

// Run dispatches args[0] with args as its argument vector.
func (a *App) Run(ctx context.Context, opts runOptions, args []string) error {
	return a.run(ctx, opts, args, false)
}

// RunAlias dispatches the program named like the wrapper's argv[0]. No
// wrapper flags are parsed and PATH is the only place searched.
func (a *App) RunAlias(ctx context.Context, argv []string) error {
	args := append([]string{filepath.Base(argv[0])}, argv[1:]...)
	return a.run(ctx, runOptions{}, args, true)
}

func (a *App) run(ctx context.Context, opts runOptions, args []string, alias bool) error {
	a.verbose = opts.verbosity > 0

	cfg, err := a.loadConfig(ctx, opts.configPath)
	if err != nil {
		return err
	}

	if opts.printConfig {
		fmt.Fprint(a.stdout, config.GenerateCUE(cfg))
		return nil
	}

	if len(args) == 0 {
		return &ExitError{
			Code: types.ExitUsage,
			Err: issue.NewErrorContext().
				WithOperation("run program").
				WithSuggestion("Run 'march --help' for usage").
				Wrap(errors.New("no program given")).
				BuildError(),
		}
	}

	logger, err := logging.New(logging.Options{
		Level:     cfg.Log.Level,
		Verbosity: opts.verbosity,
		File:      cmp.Or(opts.logFile, cfg.Log.File),
		Syslog:    opts.syslog || cfg.Log.Syslog,
		Stderr:    a.stderr,
	})
	if err != nil {
		logger.Warn("logging degraded", "error", err)
	}
	defer logger.Close()

	res := a.resolve(ctx, opts, cfg, logger)
	logger.Info("resolved level", "level", res.Level.String(), "source", string(res.Source))

	engine := dispatch.New(append(a.engineOptions(),
		dispatch.WithSuffix(cfg.DirSuffix),
		dispatch.WithLogger(logger.Logger),
	)...)

	name := args[0]
	locate := engine.Locate
	if alias {
		locate = engine.LocateAlias
	}
	target, err := locate(name)
	if err != nil {
		return a.fail(logger, name, err)
	}

	if opts.dryRun {
		d, err := engine.Decide(target, res.Level, args, a.environ)
		if err != nil {
			return a.fail(logger, target.Path, err)
		}
		printDecision(a.stdout, res, d)
		return nil
	}

	if err := engine.Dispatch(ctx, target, res.Level, args, a.environ); err != nil {
		return a.fail(logger, target.Path, err)
	}
	return nil
}

// loadConfig returns the configuration. Problems with the implicit files
// are warnings and fall back to defaults; an explicit --config file must
// load.
func (a *App) loadConfig(ctx context.Context, path string) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: path, ConfigDirs: a.configDirs})
	if err == nil {
		return cfg, nil
	}
	if ctx.Err() != nil {
		return nil, &ExitError{Code: types.ExitInterrupted, Err: err}
	}
	if path != "" {
		return nil, &ExitError{Code: types.ExitUsage, Err: withIssue(err, issue.ConfigLoadFailedId)}
	}
	fmt.Fprintln(a.stderr, WarningStyle.Render("Warning:")+" "+formatErrorForDisplay(err, a.verbose))
	return config.DefaultConfig(), nil
}

// resolve builds the level resolver from the flag, the kernel command line,
// the configuration and the CPU probe, in that order.
func (a *App) resolve(ctx context.Context, opts runOptions, cfg *config.Config, logger *logging.Logger) resolver.Result {
	token, found, err := bootparam.Read(cfg.CmdlinePath, bootparam.MarchKey)
	if err != nil {
		logger.Warn("cannot read kernel command line", "path", cfg.CmdlinePath, "error", err)
	}

	ropts := []resolver.Option{
		resolver.WithLogger(logger.Logger),
		resolver.WithOverride(resolver.Override{Source: resolver.SourceFlag, Token: opts.march, Present: opts.marchSet}),
		resolver.WithOverride(resolver.Override{Source: resolver.SourceCmdline, Token: token, Present: found}),
		resolver.WithOverride(resolver.Override{Source: resolver.SourceConfig, Token: cfg.March, Present: cfg.March != ""}),
	}
	if cfg.Probe {
		ropts = append(ropts, resolver.WithProber(a.Prober))
	}
	return resolver.New(ropts...).Resolve(ctx)
}

// fail classifies a dispatch error, records it and converts it to an
// ExitError.
func (a *App) fail(logger *logging.Logger, program string, err error) error {
	code, err := classifyDispatchError(err)
	if err == nil {
		return &ExitError{Code: code}
	}
	logger.Failure("dispatch failed", "program", program, "error", err)
	return &ExitError{Code: code, Err: err}
}

// withIssue attaches an issue guide to err, keeping an existing
// ActionableError's context.
func withIssue(err error, id issue.Id) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue == 0 {
			ae.Issue = id
		}
		return err
	}
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(id).
		Wrap(err).
		BuildError()
}
