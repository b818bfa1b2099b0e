// SPDX-License-Identifier: MPL-2.0

// Package level defines the closed, ordered set of x86-64 micro-architecture
// levels that optimized program variants are built for.
package level

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Baseline is the generic level. A program resolved to Baseline always
	// runs the original, unmodified executable.
	Baseline Level = iota
	// V2 adds SSE3, SSSE3, SSE4.1, SSE4.2 and POPCNT.
	V2
	// V3 adds AVX, AVX2, BMI1, BMI2, F16C, FMA, LZCNT and MOVBE.
	V3
	// V4 adds the AVX-512 F, BW, CD, DQ and VL subsets.
	V4

	// Highest is the most capable level known.
	Highest = V4

	// isaPrefix is accepted in front of level tokens (x86-64-v3).
	isaPrefix = "x86-64-"
)

// ErrInvalidLevel is the sentinel error wrapped by InvalidLevelError.
var ErrInvalidLevel = errors.New("invalid micro-architecture level")

var names = [...]string{
	Baseline: "baseline",
	V2:       "v2",
	V3:       "v3",
	V4:       "v4",
}

type (
	// Level is a micro-architecture level. The zero value is Baseline.
	Level int

	// InvalidLevelError is returned when a token does not name a known level.
	// It wraps ErrInvalidLevel for errors.Is() compatibility.
	InvalidLevelError struct {
		Token string
	}
)

// Error implements the error interface.
func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid micro-architecture level %q (valid: %s)", e.Token, strings.Join(Tokens(), ", "))
}

// Unwrap returns ErrInvalidLevel.
func (e *InvalidLevelError) Unwrap() error { return ErrInvalidLevel }

// Parse maps a level token onto the closed set. Matching ignores case and
// surrounding whitespace; "v1" is an alias for baseline and an "x86-64-"
// prefix is accepted.
func Parse(token string) (Level, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.TrimPrefix(t, isaPrefix)
	if t == "v1" {
		return Baseline, nil
	}
	for l, name := range names {
		if t == name {
			return Level(l), nil
		}
	}
	return Baseline, &InvalidLevelError{Token: token}
}

// FromInt converts a numeric x86-64 level (1-4) into a Level. Values outside
// the known range are clamped: anything below 2 is Baseline and anything
// above 4 is Highest.
func FromInt(n int) Level {
	switch {
	case n <= 1:
		return Baseline
	case n >= int(Highest)+1:
		return Highest
	default:
		return Level(n - 1)
	}
}

// Valid reports whether l is a member of the closed set.
func (l Level) Valid() bool { return l >= Baseline && l <= Highest }

// Clamp forces l into the closed set. Out-of-range values become Baseline.
func (l Level) Clamp() Level {
	if !l.Valid() {
		return Baseline
	}
	return l
}

// String returns the level token.
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return names[l]
}

// Descending returns l and every level below it down to, but excluding,
// Baseline, highest first. It is the order in which candidates are probed.
func (l Level) Descending() []Level {
	l = l.Clamp()
	out := make([]Level, 0, int(l))
	for cur := l; cur > Baseline; cur-- {
		out = append(out, cur)
	}
	return out
}

// Tokens lists the canonical tokens of every level, lowest first.
func Tokens() []string {
	out := make([]string, len(names))
	copy(out, names[:])
	return out
}
