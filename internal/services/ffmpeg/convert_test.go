package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"quill/internal/services"
)

func setHelperCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string{name}, args...)
		}
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		if err := os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644); err != nil {
			os.Exit(2)
		}
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func TestToWAVArguments(t *testing.T) {
	var captured []string
	setHelperCommand(t, "success", &captured)

	dir := t.TempDir()
	dest := filepath.Join(dir, "input.wav")
	if err := ToWAV(context.Background(), "", "/inbox/memo.m4a", dest); err != nil {
		t.Fatalf("ToWAV: %v", err)
	}
	if captured[0] != DefaultBinary {
		t.Fatalf("expected default binary, got %q", captured[0])
	}
	for _, want := range [][]string{{"-i", "/inbox/memo.m4a"}, {"-ar", "16000"}, {"-ac", "1"}, {"-c:a", "pcm_s16le"}} {
		idx := slices.Index(captured, want[0])
		if idx < 0 || idx+1 >= len(captured) || captured[idx+1] != want[1] {
			t.Fatalf("expected %v in args %v", want, captured)
		}
	}
	if captured[len(captured)-1] != dest {
		t.Fatalf("destination should be last, got %v", captured)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected helper output: %v", err)
	}
}

func TestToWAVFailure(t *testing.T) {
	setHelperCommand(t, "failure", nil)
	err := ToWAV(context.Background(), "ffmpeg", "in.mp3", filepath.Join(t.TempDir(), "o.wav"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestNeedsConversion(t *testing.T) {
	if NeedsConversion("a.WAV") || !NeedsConversion("a.m4a") {
		t.Fatal("NeedsConversion mismatch")
	}
}
