// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/marchexec/march/internal/issue"
	"github.com/marchexec/march/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "march"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// CUEExt is the CUE config file extension.
	CUEExt = "cue"
	// TOMLExt is the TOML config file extension.
	TOMLExt = "toml"

	// SystemConfigDir holds the system-wide configuration on Unix.
	SystemConfigDir = "/etc/march"

	// maxFileSize bounds config files; anything larger is not a config.
	maxFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// UserConfigDir returns the per-user configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func UserConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// SearchDirs returns the directories searched for config files, lowest
// precedence first.
func SearchDirs() []string {
	if configDirsOverride != nil {
		return configDirsOverride
	}
	var dirs []string
	if runtime.GOOS != platform.Windows {
		dirs = append(dirs, SystemConfigDir)
	}
	if userDir, err := UserConfigDir(); err == nil {
		dirs = append(dirs, userDir)
	}
	return dirs
}

// loadWithOptions performs option-driven config loading. It returns the
// config and the files that contributed to it.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, []string, error) {
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("march", defaults.March)
	v.SetDefault("probe", defaults.Probe)
	v.SetDefault("dir_suffix", defaults.DirSuffix)
	v.SetDefault("cmdline_path", defaults.CmdlinePath)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.syslog", defaults.Log.Syslog)

	var loaded []string

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := mergeFile(v, opts.ConfigFilePath); err != nil {
			return nil, nil, invalidFileError(opts.ConfigFilePath, err)
		}
		loaded = append(loaded, opts.ConfigFilePath)
	} else {
		dirs := opts.ConfigDirs
		if dirs == nil {
			dirs = SearchDirs()
		}
		for _, dir := range dirs {
			path, ok := findConfigFile(dir)
			if !ok {
				continue
			}
			if err := mergeFile(v, path); err != nil {
				return nil, nil, invalidFileError(path, err)
			}
			loaded = append(loaded, path)
		}
		// No config file anywhere means defaults, not an error.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("dir_suffix must be non-empty and must not contain '/'").
			Wrap(err).
			BuildError()
	}

	return &cfg, loaded, nil
}

func invalidFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE or TOML syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("Run 'march --print-config' to see the effective configuration").
		Wrap(err).
		BuildError()
}

// findConfigFile returns the config file in dir, preferring CUE over TOML.
func findConfigFile(dir string) (string, bool) {
	for _, ext := range []string{CUEExt, TOMLExt} {
		path := filepath.Join(dir, ConfigFileName+"."+ext)
		if fileExists(path) {
			return path, true
		}
	}
	return "", false
}

// mergeFile decodes a CUE or TOML file, validates it against the #Config
// schema, and merges its contents into Viper.
func mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	var userValue cue.Value
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case TOMLExt:
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		userValue = ctx.Encode(raw)
	default:
		userValue = ctx.CompileBytes(data, cue.Filename(path))
	}
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults and earlier files)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg as a CUE config file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// march configuration\n\n")
	fmt.Fprintf(&sb, "march: %q\n", cfg.March)
	fmt.Fprintf(&sb, "probe: %v\n", cfg.Probe)
	fmt.Fprintf(&sb, "dir_suffix: %q\n", cfg.DirSuffix)
	fmt.Fprintf(&sb, "cmdline_path: %q\n", cfg.CmdlinePath)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tfile: %q\n", cfg.Log.File)
	fmt.Fprintf(&sb, "\tsyslog: %v\n", cfg.Log.Syslog)
	sb.WriteString("}\n")

	return sb.String()
}
