package whisperx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"quill/internal/services"
)

var commandContext = exec.CommandContext

// Engine transcribes recordings with WhisperX.
type Engine struct {
	cfg Config
}

// New returns an Engine for cfg.
func New(cfg Config) *Engine {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.VADMethod) == "" {
		cfg.VADMethod = VADMethodSilero
	}
	return &Engine{cfg: cfg}
}

// Name identifies the engine in logs.
func (e *Engine) Name() string { return "whisperx" }

// Transcribe runs WhisperX on path and returns its segments as paragraphs.
func (e *Engine) Transcribe(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "transcribe", "whisperx", "source path required", nil)
	}
	workDir, err := os.MkdirTemp("", "quill-whisperx-")
	if err != nil {
		return "", fmt.Errorf("whisperx work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	cmd := commandContext(ctx, UVXCommand, e.args(path, workDir)...) //nolint:gosec
	cmd.Env = whisperxEnv(cmd.Env)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", services.ToolError(ctx, "transcribe", "whisperx", err, output)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	segments, err := LoadSegments(filepath.Join(workDir, stem+".json"))
	if err != nil {
		return "", services.Wrap(services.ErrEmptyOutput, "transcribe", "whisperx", "read json output", err)
	}
	text := JoinSegments(segments)
	if text == "" {
		return "", services.Wrap(services.ErrEmptyOutput, "transcribe", "whisperx", "transcript is empty", nil)
	}
	return text, nil
}

// args builds the uvx invocation. CPU runs pin float32 because the default
// float16 compute type is GPU only.
func (e *Engine) args(source, outDir string) []string {
	args := []string{"--index-url", pypiIndexURL}
	if e.cfg.CUDAEnabled {
		args = []string{"--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL}
	}
	args = append(args, "whisperx", source,
		"--model", e.cfg.Model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--batch_size", "4",
		"--beam_size", "5",
		"--temperature", "0.0",
		"--segment_resolution", "sentence",
		"--vad_method", e.cfg.VADMethod,
	)
	if lang := strings.ToLower(strings.TrimSpace(e.cfg.Language)); lang != "" && lang != "auto" {
		args = append(args, "--language", lang)
	}
	if e.cfg.CUDAEnabled {
		return append(args, "--device", "cuda")
	}
	return append(args, "--device", "cpu", "--compute_type", "float32")
}

// whisperxEnv restores torch.load's pre-2.6 default, which pyannote's
// checkpoints still need.
func whisperxEnv(env []string) []string {
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") != "" {
		return env
	}
	if env == nil {
		env = os.Environ()
	}
	return append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
}
