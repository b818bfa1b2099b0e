// SPDX-License-Identifier: MPL-2.0

// Package resolver decides which micro-architecture level a single
// invocation targets.
//
// Overrides are injected at construction time rather than read from global
// state, so a Resolver is a pure function of its inputs plus the probe.
package resolver

import (
	"context"
	"log/slog"

	"github.com/marchexec/march/internal/cpulevel"
	"github.com/marchexec/march/internal/level"
)

const (
	// SourceDefault means no input produced a level.
	SourceDefault Source = "default"
	// SourceFlag is the --march command-line flag.
	SourceFlag Source = "flag"
	// SourceCmdline is the march= kernel boot parameter.
	SourceCmdline Source = "cmdline"
	// SourceConfig is the march key of the configuration file.
	SourceConfig Source = "config"
	// SourceProbe is the runtime CPU probe.
	SourceProbe Source = "probe"
)

type (
	// Source names the input that decided the level.
	Source string

	// Override is an explicit level request. Present distinguishes an empty
	// token from an absent one.
	Override struct {
		Source  Source
		Token   string
		Present bool
	}

	// Result is the outcome of Resolve.
	Result struct {
		Level  level.Level
		Source Source
		// Token is the raw override text, empty when the level came from the
		// probe or the default.
		Token string
		// Err records why the resolver degraded to baseline, if it did.
		// It is informational only.
		Err error
	}

	// Resolver combines overrides and the CPU probe.
	Resolver struct {
		overrides []Override
		prober    cpulevel.Prober
		logger    *slog.Logger
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// WithOverride appends an override source. Sources are consulted in the
// order they were added; the first present one wins.
func WithOverride(o Override) Option {
	return func(r *Resolver) {
		if o.Present {
			r.overrides = append(r.overrides, o)
		}
	}
}

// WithProber sets the CPU probe. A nil prober disables probing.
func WithProber(p cpulevel.Prober) Option {
	return func(r *Resolver) { r.prober = p }
}

// WithLogger sets the logger used to report degraded resolutions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the effective level. It never fails: every problem
// degrades to level.Baseline, which means "run the original program".
//
// A present but unrecognized override yields baseline without consulting
// lower-priority sources or the probe.
func (r *Resolver) Resolve(ctx context.Context) Result {
	if len(r.overrides) > 0 {
		o := r.overrides[0]
		lvl, err := level.Parse(o.Token)
		if err != nil {
			r.logger.Warn("ignoring unrecognized march override", "source", string(o.Source), "token", o.Token)
			return Result{Level: level.Baseline, Source: o.Source, Token: o.Token, Err: err}
		}
		return Result{Level: lvl, Source: o.Source, Token: o.Token}
	}

	if r.prober == nil {
		return Result{Level: level.Baseline, Source: SourceDefault}
	}

	lvl, err := r.prober.Probe(ctx)
	if err != nil {
		r.logger.Info("cpu level probe failed, using baseline", "error", err)
		return Result{Level: level.Baseline, Source: SourceDefault, Err: err}
	}
	if !lvl.Valid() {
		return Result{Level: level.Baseline, Source: SourceDefault, Err: &level.InvalidLevelError{Token: lvl.String()}}
	}
	return Result{Level: lvl, Source: SourceProbe}
}
