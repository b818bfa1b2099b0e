// SPDX-License-Identifier: MPL-2.0

// Package dispatch locates the best micro-architecture variant of a program
// and replaces the current process with it.
//
// For a program at <parent>/<name> the variant for level L lives at
// <parent><suffix><L>/<name>, e.g. /usr/bin-march-v3/foo. Candidates are
// probed from the resolved level down to v2; the first regular file that
// passes an execute access check wins. Without a match the original program
// runs. A missing sibling directory is never an error.
package dispatch
