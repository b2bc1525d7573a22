package transcribe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/testsupport"
	"quill/internal/transcribe"
)

func TestNewSelectsEngineByTag(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for engine, wantName := range map[string]string{
		config.EngineWhisperCPP: "whisper_cpp",
		config.EngineWhisperX:   "whisperx",
		config.EngineCommand:    "command",
	} {
		cfg.Transcription.Engine = engine
		cfg.Transcription.Command.Argv = []string{"stt", "{input}"}
		tr, err := transcribe.New(cfg, logging.NewNop())
		if err != nil {
			t.Fatalf("New(%s): %v", engine, err)
		}
		if tr.Name() != wantName {
			t.Fatalf("engine %s built %s", engine, tr.Name())
		}
	}
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.Engine = "faster_whisper"
	if _, err := transcribe.New(cfg, logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.Engine = config.EngineCommand
	cfg.Transcription.Command.Argv = []string{"sh", "-c", "exec sleep 5", "{input}"}
	cfg.Transcription.TimeoutSeconds = 1

	tr, err := transcribe.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	started := time.Now()
	_, err = tr.Transcribe(context.Background(), "/tmp/memo.m4a")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(started) > 4*time.Second {
		t.Fatal("timeout did not stop the command")
	}
}
