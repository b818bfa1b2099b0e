// SPDX-License-Identifier: MPL-2.0

// Command march runs the build of a program that best matches the CPU's
// x86-64 micro-architecture level.
package main

import cmd "github.com/marchexec/march/cmd/march"

func main() {
	cmd.Execute()
}
