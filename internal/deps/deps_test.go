package deps

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}
}

func TestRequirementsFollowEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Engine = config.EngineWhisperCPP
	cfg.Annotation.Enabled = false
	reqs := Requirements(&cfg)
	if len(reqs) != 2 || reqs[0].Command != "whisper-cli" || reqs[1].Command != "ffmpeg" {
		t.Fatalf("whisper_cpp requirements = %#v", reqs)
	}
	if reqs[1].Optional {
		t.Fatal("ffmpeg should be required when non-WAV extensions are allowed")
	}

	cfg.Watch.AllowedExtensions = []string{".wav"}
	if reqs := Requirements(&cfg); !reqs[1].Optional {
		t.Fatal("ffmpeg should be optional for WAV-only inboxes")
	}

	cfg.Transcription.Engine = config.EngineCommand
	cfg.Transcription.Command.Argv = []string{"my-stt", "{input}"}
	cfg.Annotation.Enabled = true
	cfg.Annotation.Command = []string{"codex", "exec"}
	reqs = Requirements(&cfg)
	if len(reqs) != 2 || reqs[0].Command != "my-stt" || reqs[1].Command != "codex" || !reqs[1].Optional {
		t.Fatalf("command requirements = %#v", reqs)
	}

	cfg.Transcription.Engine = config.EngineWhisperX
	cfg.Annotation.Enabled = false
	if reqs := Requirements(&cfg); len(reqs) != 1 || reqs[0].Command != "uvx" {
		t.Fatalf("whisperx requirements = %#v", reqs)
	}
}
