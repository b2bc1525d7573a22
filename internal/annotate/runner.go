package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/services"
)

var commandContext = exec.CommandContext

const (
	outputFlag      = "--output-last-message"
	outputFlagShort = "-o"
	promptArg       = "-"
	outputFileName  = "last_message.txt"
	waitDelay       = 5 * time.Second
)

// Annotator turns a prompt into commentary text.
type Annotator interface {
	Annotate(ctx context.Context, prompt string) (string, error)
}

// RunnerConfig captures the referee command settings.
type RunnerConfig struct {
	Command         []string
	Model           string
	ReasoningEffort string
	Timeout         time.Duration
}

// Runner executes the referee CLI.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger
}

// NewRunner returns a runner for cfg.
func NewRunner(cfg RunnerConfig, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logging.NewComponentLogger(logger, "referee")}
}

// Annotate implements Annotator.
func (r *Runner) Annotate(ctx context.Context, prompt string) (string, error) {
	if len(r.cfg.Command) == 0 || strings.TrimSpace(r.cfg.Command[0]) == "" {
		return "", services.Wrap(services.ErrConfiguration, "annotate", "command", "annotation.command is empty", nil)
	}

	workDir, err := os.MkdirTemp("", "quill-referee-")
	if err != nil {
		return "", fmt.Errorf("referee work dir: %w", err)
	}
	defer os.RemoveAll(workDir)
	outPath := filepath.Join(workDir, outputFileName)

	args := BuildArgs(r.cfg.Command, outPath, r.cfg.Model, r.cfg.ReasoningEffort)

	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, r.logger)
	logger.Info("running referee", logging.String("command", strings.Join(args, " ")))

	cmd := commandContext(runCtx, args[0], args[1:]...) //nolint:gosec
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Env = refereeEnv(cmd.Env)
	cmd.WaitDelay = waitDelay
	output, runErr := cmd.CombinedOutput()

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			if text := readAnswer(outPath); text != "" {
				logging.WarnWithContext(logger, "referee timed out after writing an answer; using it", "referee_partial_output",
					logging.Duration("timeout", r.cfg.Timeout),
					logging.String(logging.FieldImpact, "commentary may be truncated"),
				)
				return text, nil
			}
			return "", services.Wrap(services.ErrTimeout, "annotate", args[0],
				fmt.Sprintf("timed out after %s (increase annotation.timeout_seconds)", r.cfg.Timeout), nil)
		}
		return "", services.ToolError(runCtx, "annotate", args[0], runErr, output)
	}

	text := readAnswer(outPath)
	if text == "" {
		return "", services.Wrap(services.ErrEmptyOutput, "annotate", args[0], "referee produced no output", nil)
	}
	return text, nil
}

// BuildArgs injects the answer-file flag, model and reasoning effort into
// the configured command unless the user already supplied them. Injected
// flags go before the "-" stdin marker, which is appended when missing.
func BuildArgs(command []string, outputPath, model, effort string) []string {
	args := append([]string(nil), command...)

	if !slices.Contains(args, outputFlag) && !slices.Contains(args, outputFlagShort) {
		if !slices.Contains(args, promptArg) {
			args = append(args, promptArg)
		}
		args = insertBeforePrompt(args, outputFlag, outputPath)
	}

	if model = strings.TrimSpace(model); model != "" && !slices.Contains(args, "--model") && !slices.Contains(args, "-m") {
		args = insertBeforePrompt(args, "--model", model)
	}

	if effort = strings.TrimSpace(effort); effort != "" && !slices.ContainsFunc(args, func(a string) bool {
		return strings.Contains(a, "model_reasoning_effort")
	}) {
		// The value is parsed as TOML by the referee, hence the quotes.
		args = insertBeforePrompt(args, "-c", fmt.Sprintf("model_reasoning_effort=%q", effort))
	}
	return args
}

func insertBeforePrompt(args []string, extra ...string) []string {
	idx := slices.Index(args, promptArg)
	if idx < 0 {
		idx = len(args)
	}
	return slices.Insert(args, idx, extra...)
}

func refereeEnv(base []string) []string {
	if base == nil {
		base = os.Environ()
	}
	for _, kv := range base {
		if strings.HasPrefix(kv, "NO_COLOR=") {
			return base
		}
	}
	return append(base, "NO_COLOR=1")
}

func readAnswer(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

var _ Annotator = (*Runner)(nil)
