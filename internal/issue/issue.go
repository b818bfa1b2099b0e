// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ProgramNotFoundId Id = iota + 1
	PermissionDeniedId
	ExecFailedId
	ConfigLoadFailedId
	InvalidLevelId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guide for a terminal. stylePath is a glamour style
// name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	programNotFoundIssue = &Issue{
		id: ProgramNotFoundId,
		mdMsg: `
# Program not found

march could not find the program it was asked to run.

## Lookup order
1. A name containing '/' is used as a path relative to the working directory
2. An executable with that name in the working directory
3. Each directory of $PATH, in order

When march runs through an alias symlink, only $PATH is searched and the
wrapper itself is skipped, along with any identical copy of it.

## Things you can try
- Pass the full path to the program:
~~~
$ march /usr/bin/foo --help
~~~
- Check $PATH:
~~~
$ echo $PATH
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Program is not executable

The program exists, but it is not a regular file with execute permission,
and no optimized variant could be used instead.

## Things you can try
- Check the mode of the file:
~~~
$ ls -l /usr/bin/foo
~~~
- Restore the execute bit:
~~~
$ chmod +x /usr/bin/foo
~~~`,
	}

	execFailedIssue = &Issue{
		id: ExecFailedId,
		mdMsg: `
# Exec failed

march chose an executable but the operating system refused to start it.
march does not retry.

## Common causes
- The file was removed or replaced while march was running
- The interpreter named on the '#!' line does not exist
- The binary was built for another architecture or level than the CPU supports

## Things you can try
- Run again with ` + "`-vv`" + ` to see which candidate was chosen
- Force the generic program:
~~~
$ march --march baseline foo
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

march continued with its built-in defaults.

## Configuration file locations (later wins)
- /etc/march/config.cue or /etc/march/config.toml
- $XDG_CONFIG_HOME/march/config.cue or config.toml

## Example configuration
~~~cue
march: "v3"
probe: true
dir_suffix: "-march-"
log: {
	level: "warn"
}
~~~`,
	}

	invalidLevelIssue = &Issue{
		id: InvalidLevelId,
		mdMsg: `
# Unrecognized micro-architecture level

The level was ignored and the generic program is used.

## Valid levels
- **baseline** (also v1)
- **v2**
- **v3**
- **v4**

An ` + "`x86-64-`" + ` prefix is accepted, e.g. ` + "`march=x86-64-v3`" + `.`,
		extLinks: []HttpLink{"https://gitlab.com/x86-psABIs/x86-64-ABI"},
	}

	issues = map[Id]*Issue{
		programNotFoundIssue.Id():  programNotFoundIssue,
		permissionDeniedIssue.Id(): permissionDeniedIssue,
		execFailedIssue.Id():       execFailedIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		invalidLevelIssue.Id():     invalidLevelIssue,
	}
)

// Values returns every known issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
