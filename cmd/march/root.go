// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/marchexec/march/internal/issue"
	"github.com/marchexec/march/internal/level"
	"github.com/marchexec/march/pkg/types"
)

// programName is the wrapper's own name. Invoked under any other name it
// runs in alias mode.
const programName = "march"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// runOptions holds the parsed wrapper flags.
type runOptions struct {
	march       string
	marchSet    bool
	verbosity   int
	logFile     string
	syslog      bool
	dryRun      bool
	configPath  string
	printConfig bool
}

func newRootCommand(app *App) *cobra.Command {
	var opts runOptions

	rootCmd := &cobra.Command{
		Use:   programName + " [flags] prog [args...]",
		Short: "Run the best micro-architecture build of a program",
		Long: TitleStyle.Render(programName) + SubtitleStyle.Render(" - run the best micro-architecture build of a program") + `

march looks for a build of prog optimized for this machine's x86-64
micro-architecture level next to the generic one, and replaces itself with
the best one it finds. Builds live in sibling directories named after the
program's directory and the level:

  /usr/bin/foo               generic build
  /usr/bin-march-v3/foo      x86-64-v3 build
  /usr/bin-march-v4/foo      x86-64-v4 build

The level comes from --march, then the march= kernel boot parameter, then
the configuration file, then the CPU itself.

` + SubtitleStyle.Render("Levels:") + ` ` + strings.Join(level.Tokens(), ", ") + `

` + SubtitleStyle.Render("Examples:") + `
  march foo --bar           Run the best build of foo
  march -m v2 foo           Never use a build above x86-64-v2
  march -n foo              Show which build would run
  ln -s march ~/bin/foo     Make 'foo' always go through march`,
		Version:      getVersionString(),
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.marchSet = cmd.Flags().Changed("march")
			return app.Run(cmd.Context(), opts, args)
		},
	}

	flags := rootCmd.Flags()
	// Everything after prog belongs to prog.
	flags.SetInterspersed(false)
	flags.StringVarP(&opts.march, "march", "m", "", "micro-architecture `level` to use (baseline, v2, v3, v4)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	flags.StringVarP(&opts.logFile, "log", "l", "", "write the log to `file` instead of stderr")
	flags.BoolVarP(&opts.syslog, "syslog", "s", false, "also record failures in syslog")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "print the decision instead of running the program")
	flags.StringVar(&opts.configPath, "config", "", "config `file` (default is /etc/march and $XDG_CONFIG_HOME/march)")
	flags.BoolVar(&opts.printConfig, "print-config", false, "print the effective configuration as CUE and exit")
	flags.BoolP("version", "V", false, "print the version and exit")

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// isAlias reports whether the wrapper was started under another name.
func isAlias(arg0 string) bool {
	name := strings.TrimSuffix(filepath.Base(arg0), ".exe")
	return name != programName
}

// Execute runs the wrapper and exits. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	os.Exit(int(execute(context.Background(), app, os.Args)))
}

func execute(ctx context.Context, app *App, argv []string) types.ExitCode {
	var err error
	if len(argv) > 0 && isAlias(argv[0]) {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		err = app.RunAlias(ctx, argv)
		if err != nil {
			app.renderError(app.stderr, err)
		}
	} else {
		rootCmd := newRootCommand(app)
		rootCmd.SetArgs(argv[min(1, len(argv)):])
		rootCmd.SetOut(app.stdout)
		rootCmd.SetErr(app.stderr)
		// Use fang.Execute for enhanced Cobra styling
		err = fang.Execute(
			ctx,
			rootCmd,
			fang.WithVersion(getVersionString()),
			fang.WithNotifySignal(os.Interrupt),
			fang.WithoutCompletions(),
			fang.WithoutManpage(),
			fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
				app.renderError(w, err)
			}),
		)
	}

	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitUsage
}

// renderError prints err as a single line. In verbose mode the error chain
// and the matching issue guide follow.
func (a *App) renderError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, a.verbose))
	if !a.verbose {
		return
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return
	}
	if guide := issue.Get(ae.Issue); guide != nil {
		rendered, renderErr := guide.Render("dark")
		if renderErr != nil {
			fmt.Fprintln(w, WarningStyle.Render("Warning:")+" failed to render guide: "+renderErr.Error())
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, verbose mode adds suggestions and the
// full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && verboseMode {
		return ae.Format(true)
	}
	return err.Error()
}
