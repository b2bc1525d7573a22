package services_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"quill/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribe", "whisper-cli", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "whisper-cli", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestReasonMapping(t *testing.T) {
	cases := map[string]error{
		"tool_missing":  services.Wrap(services.ErrToolMissing, "annotate", "start", "", nil),
		"timeout":       services.Wrap(services.ErrTimeout, "annotate", "run", "", nil),
		"empty_output":  services.Wrap(services.ErrEmptyOutput, "transcribe", "read", "", nil),
		"tool_failed":   services.Wrap(services.ErrExternalTool, "transcribe", "run", "", nil),
		"configuration": services.Wrap(services.ErrConfiguration, "transcribe", "model", "", nil),
		"transient":     errors.New("plain"),
	}
	for want, err := range cases {
		if got := services.Reason(err); got != want {
			t.Fatalf("Reason(%v) = %q, want %q", err, got, want)
		}
	}
	if services.Reason(nil) != "" {
		t.Fatal("expected empty reason for nil")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.ContentIDFromContext(ctx); ok {
		t.Fatal("expected no content id on empty context")
	}
	ctx = services.WithContentID(ctx, "abc")
	ctx = services.WithStage(ctx, "transcribe")
	ctx = services.WithRequestID(ctx, "")
	if id, ok := services.ContentIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("unexpected content id %q", id)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcribe" {
		t.Fatalf("unexpected stage %q", stage)
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("empty request id should not be stored")
	}
}

func TestToolErrorClassification(t *testing.T) {
	ctx := context.Background()

	missing := exec.CommandContext(ctx, "quill-test-binary-that-does-not-exist")
	out, err := missing.CombinedOutput()
	if got := services.ToolError(ctx, "transcribe", "quill-test-binary-that-does-not-exist", err, out); !errors.Is(got, services.ErrToolMissing) {
		t.Fatalf("expected tool missing, got %v", got)
	}

	failing := exec.CommandContext(ctx, "sh", "-c", "echo model exploded >&2; exit 3")
	out, err = failing.CombinedOutput()
	got := services.ToolError(ctx, "transcribe", "sh", err, out)
	if !errors.Is(got, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", got)
	}
	if !strings.Contains(got.Error(), "exit 3") || !strings.Contains(got.Error(), "model exploded") {
		t.Fatalf("expected exit code and stderr in %q", got.Error())
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	slow := exec.CommandContext(short, "sh", "-c", "exec sleep 5")
	out, err = slow.CombinedOutput()
	if got := services.ToolError(short, "annotate", "sh", err, out); !errors.Is(got, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", got)
	}

	if services.ToolError(ctx, "x", "y", nil, nil) != nil {
		t.Fatal("nil error should stay nil")
	}
}
