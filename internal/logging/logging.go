// SPDX-License-Identifier: MPL-2.0

// Package logging builds the wrapper's loggers on top of charmbracelet/log.
//
// Diagnostics go to stderr or a log file. Fatal failures are additionally
// recorded in the log file and, when enabled, in syslog, since stderr of a
// wrapped program is often not captured anywhere.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
)

const (
	// Prefix is printed in front of every log line.
	Prefix = "march"
	// DefaultLevel is used when the configuration names no level.
	DefaultLevel = "warn"

	timeFormat = time.DateTime
)

type (
	// Options selects where and how much to log.
	Options struct {
		// Level is the base level name (debug, info, warn, error).
		Level string
		// Verbosity lowers the level one step per count.
		Verbosity int
		// File receives the log instead of stderr. Empty or "-" means stderr.
		File string
		// Syslog mirrors failures to the system log.
		Syslog bool
		// Stderr overrides os.Stderr, for tests.
		Stderr io.Writer
	}

	// Logger is the wrapper's logger.
	Logger struct {
		*slog.Logger
		failures *slog.Logger
		closers  []io.Closer
	}
)

// EffectiveLevel applies verbosity to a base level name. Each step moves one
// level towards debug, stopping there.
func EffectiveLevel(base string, verbosity int) (log.Level, error) {
	if base == "" {
		base = DefaultLevel
	}
	lvl, err := log.ParseLevel(base)
	if err != nil {
		return log.WarnLevel, fmt.Errorf("log level %q: %w", base, err)
	}
	for range verbosity {
		if lvl <= log.DebugLevel {
			break
		}
		lvl -= 4
	}
	return max(lvl, log.DebugLevel), nil
}

// New creates a Logger. An invalid level falls back to DefaultLevel and is
// reported in the returned error alongside a usable Logger.
func New(opts Options) (*Logger, error) {
	var errs []error

	lvl, err := EffectiveLevel(opts.Level, opts.Verbosity)
	if err != nil {
		errs = append(errs, err)
		lvl, _ = EffectiveLevel(DefaultLevel, opts.Verbosity)
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	l := &Logger{}
	out := stderr
	var fileHandler slog.Handler
	if opts.File != "" && opts.File != "-" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			errs = append(errs, fmt.Errorf("open log file: %w", err))
		} else {
			l.closers = append(l.closers, f)
			out = f
			fileHandler = newCharm(f, lvl, true)
		}
	}
	l.Logger = slog.New(newCharm(out, lvl, true))

	var failureHandlers []slog.Handler
	if fileHandler != nil {
		failureHandlers = append(failureHandlers, fileHandler)
	}
	if opts.Syslog {
		w, err := openSyslog(Prefix)
		if err != nil {
			errs = append(errs, fmt.Errorf("open syslog: %w", err))
		} else {
			l.closers = append(l.closers, w)
			failureHandlers = append(failureHandlers, newCharm(w, log.ErrorLevel, false))
		}
	}
	l.failures = slog.New(slogmulti.Fanout(failureHandlers...))

	return l, errors.Join(errs...)
}

// Failure records a fatal error in the log file and syslog. Printing it on
// stderr is left to the caller so the user sees exactly one line.
func (l *Logger) Failure(msg string, args ...any) {
	l.failures.Error(msg, args...)
}

// Close releases the log file and the syslog connection.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}

func newCharm(w io.Writer, lvl log.Level, timestamps bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           lvl,
		ReportTimestamp: timestamps,
		TimeFormat:      timeFormat,
	})
}
