// Package command runs an arbitrary transcription program that prints the
// transcript on stdout.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"quill/internal/services"
)

// InputPlaceholder is replaced by the recording path in argv entries.
const InputPlaceholder = "{input}"

var commandContext = exec.CommandContext

// waitDelay bounds how long output pipes held open by grandchildren can
// delay returning after the command is killed.
const waitDelay = 5 * time.Second

// Transcriber runs a configured argv template.
type Transcriber struct {
	argv []string
}

// New returns a transcriber for argv. When no entry contains {input} the
// recording path is appended as the final argument.
func New(argv []string) *Transcriber {
	return &Transcriber{argv: append([]string(nil), argv...)}
}

// Name identifies the engine in logs.
func (t *Transcriber) Name() string { return "command" }

// Transcribe runs the command and returns its trimmed stdout.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	args := t.Args(path)
	if len(args) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "transcribe", "command", "transcription.command.argv is empty", nil)
	}

	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, args[0], args[1:]...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	if err := cmd.Run(); err != nil {
		return "", services.ToolError(ctx, "transcribe", args[0], err, stderr.Bytes())
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", services.Wrap(services.ErrEmptyOutput, "transcribe", args[0], "command printed no transcript", nil)
	}
	return text, nil
}

// Args expands the argv template for path.
func (t *Transcriber) Args(path string) []string {
	if len(t.argv) == 0 {
		return nil
	}
	args := make([]string, 0, len(t.argv)+1)
	substituted := false
	for _, arg := range t.argv {
		if strings.Contains(arg, InputPlaceholder) {
			substituted = true
			arg = strings.ReplaceAll(arg, InputPlaceholder, path)
		}
		args = append(args, arg)
	}
	if !substituted {
		args = append(args, path)
	}
	return args
}
