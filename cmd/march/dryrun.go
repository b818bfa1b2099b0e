// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/marchexec/march/internal/dispatch"
	"github.com/marchexec/march/internal/resolver"
)

// printDecision writes what a dispatch would do, one fact per line.
func printDecision(w io.Writer, res resolver.Result, d *dispatch.Decision) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render(fmt.Sprintf("%-8s", label)), value)
	}

	row("program", d.Target.Path)

	source := string(res.Source)
	if res.Token != "" {
		source += " " + strconv.Quote(res.Token)
	}
	row("level", fmt.Sprintf("%s (%s)", res.Level, source))
	if res.Err != nil {
		row("note", WarningStyle.Render(res.Err.Error()))
	}

	for _, p := range d.Probed {
		status := SuccessStyle.Render("ok")
		if p.Err != nil {
			status = WarningStyle.Render("skip: " + probeReason(p.Err))
		}
		row("probe", fmt.Sprintf("%-8s %s  %s", p.Candidate.Level, p.Candidate.Path, status))
	}

	row("exec", SuccessStyle.Render(d.Path))
	row("argv", shellJoin(d.Argv))
}

// probeReason drops the path from a probe error, which is already shown.
func probeReason(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}

// shellJoin renders argv so it can be pasted into a shell.
func shellJoin(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = strconv.Quote(arg)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}
