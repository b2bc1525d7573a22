package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"testing"

	"quill/internal/services"
)

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("COMMAND_HELPER_MODE=%s", mode))
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
	switch os.Getenv("COMMAND_HELPER_MODE") {
	case "success":
		fmt.Println("  transcript text  ")
		os.Exit(0)
	case "silent":
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "unsupported codec")
		os.Exit(4)
	default:
		os.Exit(0)
	}
}

func TestArgsPlaceholder(t *testing.T) {
	tr := New([]string{"stt", "--in={input}", "--fast"})
	if got := tr.Args("/a b.m4a"); !slices.Equal(got, []string{"stt", "--in=/a b.m4a", "--fast"}) {
		t.Fatalf("Args = %v", got)
	}
	tr = New([]string{"stt", "--fast"})
	if got := tr.Args("/x.m4a"); !slices.Equal(got, []string{"stt", "--fast", "/x.m4a"}) {
		t.Fatalf("Args without placeholder = %v", got)
	}
}

func TestTranscribe(t *testing.T) {
	setHelperCommand(t, "success")
	text, err := New([]string{"stt"}).Transcribe(context.Background(), "/x.m4a")
	if err != nil || text != "transcript text" {
		t.Fatalf("Transcribe = %q, %v", text, err)
	}
}

func TestTranscribeFailureReasons(t *testing.T) {
	for mode, want := range map[string]error{"silent": services.ErrEmptyOutput, "failure": services.ErrExternalTool} {
		t.Run(mode, func(t *testing.T) {
			setHelperCommand(t, mode)
			_, err := New([]string{"stt"}).Transcribe(context.Background(), "/x.m4a")
			if !errors.Is(err, want) {
				t.Fatalf("expected %v, got %v", want, err)
			}
		})
	}
	if _, err := New(nil).Transcribe(context.Background(), "/x"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
