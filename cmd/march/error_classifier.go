// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/marchexec/march/internal/dispatch"
	"github.com/marchexec/march/internal/issue"
	"github.com/marchexec/march/pkg/types"
)

// classifyDispatchError maps a lookup or hand-off failure to the wrapper's
// exit code and an actionable error. A nil error means the failure needs no
// message: the child already reported its own status.
func classifyDispatchError(err error) (types.ExitCode, error) {
	var status *dispatch.ExitStatusError
	if errors.As(err, &status) {
		return types.ExitCode(status.Code).Normalize(), nil
	}

	ctx := issue.NewErrorContext().WithOperation("run program").Wrap(err)
	code := types.ExitNotExecutable

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.ExitInterrupted, err
	case errors.Is(err, dispatch.ErrProgramNotFound):
		code = types.ExitNotFound
		ctx.WithIssue(issue.ProgramNotFoundId).
			WithSuggestion("Check the program name and $PATH")
	case errors.Is(err, dispatch.ErrNotExecutable):
		ctx.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Check that the program is a regular file with execute permission")
	case errors.Is(err, dispatch.ErrExecFailed):
		if dispatch.IsNotExist(err) {
			code = types.ExitNotFound
		}
		ctx.WithIssue(issue.ExecFailedId).
			WithSuggestion("Run with -vv to see which build was chosen")
	default:
		ctx.WithIssue(issue.ExecFailedId)
	}

	return code, ctx.BuildError()
}
