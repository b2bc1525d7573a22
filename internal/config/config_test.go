package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"quill/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvConfigPath, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "Voice", "inbox"); cfg.Paths.InboxDir != want {
		t.Fatalf("unexpected inbox dir: got %q want %q", cfg.Paths.InboxDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "quill", "ledger.db"); cfg.Ledger.Path != want {
		t.Fatalf("unexpected ledger path: got %q want %q", cfg.Ledger.Path, want)
	}
	if cfg.Ledger.LeaseTTLSeconds != 3600 {
		t.Fatalf("unexpected lease ttl: %d", cfg.Ledger.LeaseTTLSeconds)
	}
	if cfg.Watch.StableSeconds != 10 || cfg.Watch.PollIntervalSeconds != 5 {
		t.Fatalf("unexpected watch timings: %+v", cfg.Watch)
	}
	if !cfg.Watch.FingerprintPrefilter {
		t.Fatal("expected fingerprint prefilter enabled by default")
	}
	if cfg.Transcription.Engine != config.EngineWhisperCPP {
		t.Fatalf("unexpected engine: %q", cfg.Transcription.Engine)
	}
	if cfg.Archive.SubdirFormat != "%Y/%m" {
		t.Fatalf("unexpected archive subdir format: %q", cfg.Archive.SubdirFormat)
	}
	if got := strings.Join(cfg.Annotation.Command, " "); !strings.HasPrefix(got, "codex exec") {
		t.Fatalf("unexpected annotation command: %q", got)
	}
}

func TestLoadCustomTOMLNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "quill.toml")
	content := []byte(`[paths]
inbox_dir = "~/drop"
notebooks_dir = "~/vault/voice"

[watch]
allowed_extensions = ["M4A", "ogg", ".m4a"]
stable_seconds = 0

[transcription]
engine = "whisper-cpp"

[transcription.whisper_cpp]
model_path = "~/models/base.bin"

[logging]
format = " JSON "
level = "DEBUG"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.InboxDir != filepath.Join(tempHome, "drop") {
		t.Fatalf("unexpected inbox dir: %q", cfg.Paths.InboxDir)
	}
	if got := strings.Join(cfg.Watch.AllowedExtensions, ","); got != ".m4a,.ogg" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Transcription.Engine != config.EngineWhisperCPP {
		t.Fatalf("expected hyphenated engine to normalize, got %q", cfg.Transcription.Engine)
	}
	if cfg.Transcription.WhisperCPP.ModelPath != filepath.Join(tempHome, "models", "base.bin") {
		t.Fatalf("unexpected model path: %q", cfg.Transcription.WhisperCPP.ModelPath)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`watch:
  stable_seconds: 30
  poll_interval_seconds: 2
annotation:
  enabled: false
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Watch.StableSeconds != 30 || cfg.Watch.PollIntervalSeconds != 2 {
		t.Fatalf("unexpected watch config: %+v", cfg.Watch)
	}
	if cfg.Annotation.Enabled {
		t.Fatal("expected annotation disabled from yaml")
	}
	if len(cfg.Watch.AllowedExtensions) != 4 {
		t.Fatalf("expected default extensions to survive partial yaml, got %v", cfg.Watch.AllowedExtensions)
	}
}

func TestLoadHonoursEnvConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "env.toml")
	if err := os.WriteFile(path, []byte("[ledger]\nlease_ttl_seconds = 90\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvConfigPath, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected env path to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.LeaseTTL().Seconds() != 90 {
		t.Fatalf("unexpected lease ttl: %v", cfg.LeaseTTL())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"engine", func(c *config.Config) { c.Transcription.Engine = "vosk" }, "transcription.engine"},
		{"command argv", func(c *config.Config) { c.Transcription.Engine = config.EngineCommand }, "transcription.command.argv"},
		{"poll interval", func(c *config.Config) { c.Watch.PollIntervalSeconds = 0 }, "poll_interval_seconds"},
		{"lease ttl", func(c *config.Config) { c.Ledger.LeaseTTLSeconds = -1 }, "lease_ttl_seconds"},
		{"extensions", func(c *config.Config) { c.Watch.AllowedExtensions = nil }, "allowed_extensions"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"effort", func(c *config.Config) { c.Annotation.ReasoningEffort = "extreme" }, "reasoning_effort"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.InboxDir = "/in"
			cfg.Paths.NotebooksDir = "/notes"
			cfg.Paths.ArchiveDir = "/archive"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
