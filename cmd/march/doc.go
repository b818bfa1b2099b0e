// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the march command line.
//
// march is used in two ways. Invoked as "march [flags] prog [args...]" it
// parses its own flags up to the first positional argument and dispatches
// prog. Invoked through a symlink or hard link under any other name, it
// parses nothing and dispatches the program of that name found on PATH,
// passing every argument through.
package cmd
