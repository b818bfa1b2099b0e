// SPDX-License-Identifier: MPL-2.0

// Package cpulevel queries the x86-64 micro-architecture level supported by
// the running CPU.
package cpulevel

import (
	"context"
	"errors"
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/marchexec/march/internal/level"
)

// ErrUnavailable is returned when the platform cannot report a level.
var ErrUnavailable = errors.New("cpu level probe unavailable")

type (
	// Prober reports the highest level the current CPU supports.
	Prober interface {
		Probe(ctx context.Context) (level.Level, error)
	}

	// ProberFunc adapts a function to the Prober interface.
	ProberFunc func(ctx context.Context) (level.Level, error)

	// cpuidProber reads CPUID through klauspost/cpuid.
	cpuidProber struct {
		arch     string
		x64Level func() int
	}
)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context) (level.Level, error) { return f(ctx) }

// NewProber returns a Prober backed by the CPUID instruction.
func NewProber() Prober {
	return &cpuidProber{
		arch:     runtime.GOARCH,
		x64Level: cpuid.CPU.X64Level,
	}
}

// Probe implements Prober.
func (p *cpuidProber) Probe(ctx context.Context) (level.Level, error) {
	if err := ctx.Err(); err != nil {
		return level.Baseline, err
	}
	if p.arch != "amd64" {
		return level.Baseline, ErrUnavailable
	}
	n := p.x64Level()
	if n <= 0 {
		// cpuid could not classify the CPU (e.g. a hypervisor hiding leaves).
		return level.Baseline, ErrUnavailable
	}
	return level.FromInt(n), nil
}

// Static returns a Prober that always reports lvl.
func Static(lvl level.Level) Prober {
	return ProberFunc(func(context.Context) (level.Level, error) { return lvl, nil })
}
