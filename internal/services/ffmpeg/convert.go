// Package ffmpeg converts recordings into the 16 kHz mono PCM WAV that the
// speech-to-text engines expect.
package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"quill/internal/services"
)

// DefaultBinary is used when no ffmpeg path is configured.
const DefaultBinary = "ffmpeg"

var commandContext = exec.CommandContext

// NeedsConversion reports whether path must be converted before a WAV-only
// engine can read it.
func NeedsConversion(path string) bool {
	return !strings.EqualFold(filepath.Ext(path), ".wav")
}

// ToWAV writes a mono 16 kHz signed 16-bit WAV of source to dest,
// overwriting dest.
func ToWAV(ctx context.Context, binary, source, dest string) error {
	if source == "" || dest == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "ffmpeg", "source and destination required", nil)
	}
	if binary == "" {
		binary = DefaultBinary
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", source,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dest,
	}
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		wrapped := services.ToolError(ctx, "transcribe", binary, err, output)
		if errors.Is(wrapped, services.ErrToolMissing) {
			return services.Wrap(services.ErrToolMissing, "transcribe", "ffmpeg",
				"ffmpeg is required to convert non-WAV recordings; install it or record WAV", err)
		}
		return wrapped
	}
	return nil
}
