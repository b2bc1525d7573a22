// Package whispercpp runs the whisper.cpp command-line transcriber.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"quill/internal/services"
	"quill/internal/services/ffmpeg"
)

// DefaultBinary is the whisper.cpp CLI name in recent releases.
const DefaultBinary = "whisper-cli"

var commandContext = exec.CommandContext

// Config captures runtime settings for whisper.cpp.
type Config struct {
	Binary       string
	ModelPath    string
	Language     string
	Threads      int
	ExtraArgs    []string
	FFmpegBinary string
}

// Client transcribes recordings with whisper.cpp.
type Client struct {
	cfg Config
}

// New returns a client for cfg.
func New(cfg Config) *Client {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 4
	}
	return &Client{cfg: cfg}
}

// Name identifies the engine in logs.
func (c *Client) Name() string { return "whisper_cpp" }

// Transcribe converts path to WAV when needed, runs whisper.cpp with text
// output and returns the transcript.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	if c.cfg.ModelPath == "" {
		return "", services.Wrap(services.ErrConfiguration, "transcribe", "whisper.cpp", "transcription.whisper_cpp.model_path is not set", nil)
	}
	if _, err := os.Stat(c.cfg.ModelPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrConfiguration, "transcribe", "whisper.cpp",
				fmt.Sprintf("model not found: %s", c.cfg.ModelPath), nil)
		}
		return "", services.Wrap(services.ErrConfiguration, "transcribe", "whisper.cpp", "stat model", err)
	}

	workDir, err := os.MkdirTemp("", "quill-whispercpp-")
	if err != nil {
		return "", fmt.Errorf("whisper.cpp work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	input := path
	if ffmpeg.NeedsConversion(path) {
		input = filepath.Join(workDir, "input.wav")
		if err := ffmpeg.ToWAV(ctx, c.cfg.FFmpegBinary, path, input); err != nil {
			return "", err
		}
	}

	prefix := filepath.Join(workDir, "transcript")
	cmd := commandContext(ctx, c.cfg.Binary, c.args(input, prefix)...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", services.ToolError(ctx, "transcribe", c.cfg.Binary, err, output)
	}

	data, err := os.ReadFile(prefix + ".txt")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrEmptyOutput, "transcribe", "whisper.cpp",
				"no .txt output produced; check transcription.whisper_cpp.extra_args", nil)
		}
		return "", fmt.Errorf("read whisper.cpp output: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", services.Wrap(services.ErrEmptyOutput, "transcribe", "whisper.cpp", "transcript is empty", nil)
	}
	return text, nil
}

func (c *Client) args(input, prefix string) []string {
	args := []string{
		"-m", c.cfg.ModelPath,
		"-f", input,
		"-t", strconv.Itoa(c.cfg.Threads),
		"-otxt",
		"-of", prefix,
	}
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" && !strings.EqualFold(lang, "auto") {
		args = append(args, "-l", lang)
	}
	return append(args, c.cfg.ExtraArgs...)
}
