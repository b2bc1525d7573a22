package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

const maxToolOutput = 400

// ToolError classifies a failed external command run under ctx. Missing
// binaries, deadline expiry and nonzero exits map to distinct markers.
func ToolError(ctx context.Context, stage, tool string, err error, output []byte) error {
	if err == nil {
		return nil
	}
	detail := trimOutput(output)
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return Wrap(ErrToolMissing, stage, tool, fmt.Sprintf("binary %q not found", tool), err)
	case ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Wrap(ErrTimeout, stage, tool, "timed out", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("exit %d", exitErr.ExitCode())
		if detail != "" {
			msg += ": " + detail
		}
		return Wrap(ErrExternalTool, stage, tool, msg, nil)
	}
	return Wrap(ErrExternalTool, stage, tool, detail, err)
}

func trimOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > maxToolOutput {
		text = "..." + text[len(text)-maxToolOutput:]
	}
	return text
}
