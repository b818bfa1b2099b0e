// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/marchexec/march/internal/bootparam"
	"github.com/marchexec/march/internal/dispatch"
	"github.com/marchexec/march/internal/logging"
)

var (
	// ErrInvalidDirSuffix is the sentinel error wrapped by InvalidDirSuffixError.
	ErrInvalidDirSuffix = errors.New("invalid directory suffix")
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

var logLevels = []string{"debug", "info", "warn", "error"}

type (
	// Config is the effective march configuration.
	Config struct {
		// March is the fallback level override, below --march and the
		// march= boot parameter in precedence.
		March string `json:"march" mapstructure:"march"`
		// Probe enables the runtime CPU level probe.
		Probe bool `json:"probe" mapstructure:"probe"`
		// DirSuffix joins a directory name and a level token.
		DirSuffix string `json:"dir_suffix" mapstructure:"dir_suffix"`
		// CmdlinePath is the kernel command line file.
		CmdlinePath string `json:"cmdline_path" mapstructure:"cmdline_path"`
		// Log configures logging.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		// Level is the base level, lowered by each -v.
		Level string `json:"level" mapstructure:"level"`
		// File receives the log instead of stderr.
		File string `json:"file" mapstructure:"file"`
		// Syslog mirrors fatal errors to the system log.
		Syslog bool `json:"syslog" mapstructure:"syslog"`
	}

	// InvalidDirSuffixError is returned when DirSuffix is empty or contains
	// a path separator.
	InvalidDirSuffixError struct {
		Value string
	}

	// InvalidLogLevelError is returned when Log.Level is not recognized.
	InvalidLogLevelError struct {
		Value string
	}

	// InvalidConfigError aggregates field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidDirSuffixError) Error() string {
	return fmt.Sprintf("invalid directory suffix %q (must be non-empty and contain no path separator)", e.Value)
}

// Unwrap returns ErrInvalidDirSuffix.
func (e *InvalidDirSuffixError) Unwrap() error { return ErrInvalidDirSuffix }

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: %s)", e.Value, strings.Join(logLevels, ", "))
}

// Unwrap returns ErrInvalidLogLevel.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks constraints the schema cannot express for values that
// did not come from a file (defaults, flags).
func (c *Config) Validate() error {
	var errs []error
	if c.DirSuffix == "" || strings.ContainsAny(c.DirSuffix, `/\`) {
		errs = append(errs, &InvalidDirSuffixError{Value: c.DirSuffix})
	}
	if c.Log.Level != "" && !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, &InvalidLogLevelError{Value: c.Log.Level})
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		March:       "",
		Probe:       true,
		DirSuffix:   dispatch.DefaultSuffix,
		CmdlinePath: bootparam.DefaultCmdlinePath,
		Log: LogConfig{
			Level:  logging.DefaultLevel,
			File:   "",
			Syslog: false,
		},
	}
}
