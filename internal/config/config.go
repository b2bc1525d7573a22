package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"quill/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories quill reads from and writes to.
type Paths struct {
	InboxDir     string `toml:"inbox_dir" yaml:"inbox_dir"`
	NotebooksDir string `toml:"notebooks_dir" yaml:"notebooks_dir"`
	ArchiveDir   string `toml:"archive_dir" yaml:"archive_dir"`
	StateDir     string `toml:"state_dir" yaml:"state_dir"`
	LogDir       string `toml:"log_dir" yaml:"log_dir"`
}

// Ledger configures the processing ledger database.
type Ledger struct {
	// Path defaults to <state_dir>/ledger.db when empty.
	Path            string `toml:"path" yaml:"path"`
	LeaseTTLSeconds int    `toml:"lease_ttl_seconds" yaml:"lease_ttl_seconds"`
}

// Watch configures inbox scanning.
type Watch struct {
	AllowedExtensions    []string `toml:"allowed_extensions" yaml:"allowed_extensions"`
	StableSeconds        int      `toml:"stable_seconds" yaml:"stable_seconds"`
	PollIntervalSeconds  int      `toml:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	FingerprintPrefilter bool     `toml:"fingerprint_prefilter" yaml:"fingerprint_prefilter"`
	Fsnotify             bool     `toml:"fsnotify" yaml:"fsnotify"`
}

// Archive configures where processed originals are moved.
type Archive struct {
	Enabled      bool   `toml:"enabled" yaml:"enabled"`
	SubdirFormat string `toml:"subdir_format" yaml:"subdir_format"`
}

// WhisperCPP configures the whisper.cpp transcription engine.
type WhisperCPP struct {
	Binary       string   `toml:"binary" yaml:"binary"`
	ModelPath    string   `toml:"model_path" yaml:"model_path"`
	Language     string   `toml:"language" yaml:"language"`
	Threads      int      `toml:"threads" yaml:"threads"`
	ExtraArgs    []string `toml:"extra_args" yaml:"extra_args"`
	FFmpegBinary string   `toml:"ffmpeg_binary" yaml:"ffmpeg_binary"`
}

// WhisperX configures the WhisperX transcription engine (run through uvx).
type WhisperX struct {
	Model       string `toml:"model" yaml:"model"`
	Language    string `toml:"language" yaml:"language"`
	CUDAEnabled bool   `toml:"cuda_enabled" yaml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method" yaml:"vad_method"`
}

// CommandEngine configures a generic transcription command. Argv entries may
// contain the {input} placeholder; the command prints the transcript on stdout.
type CommandEngine struct {
	Argv []string `toml:"argv" yaml:"argv"`
}

// Transcription selects and configures the speech-to-text engine.
type Transcription struct {
	Engine         string        `toml:"engine" yaml:"engine"`
	TimeoutSeconds int           `toml:"timeout_seconds" yaml:"timeout_seconds"`
	WhisperCPP     WhisperCPP    `toml:"whisper_cpp" yaml:"whisper_cpp"`
	WhisperX       WhisperX      `toml:"whisperx" yaml:"whisperx"`
	Command        CommandEngine `toml:"command" yaml:"command"`
}

// Routing tunes the heuristic topic router.
type Routing struct {
	InferTopicMaxWords int `toml:"infer_topic_max_words" yaml:"infer_topic_max_words"`
	InferTopicMaxChars int `toml:"infer_topic_max_chars" yaml:"infer_topic_max_chars"`
}

// Annotation configures the referee commentary step.
type Annotation struct {
	Enabled             bool     `toml:"enabled" yaml:"enabled"`
	Command             []string `toml:"command" yaml:"command"`
	Model               string   `toml:"model" yaml:"model"`
	ReasoningEffort     string   `toml:"reasoning_effort" yaml:"reasoning_effort"`
	TimeoutSeconds      int      `toml:"timeout_seconds" yaml:"timeout_seconds"`
	PromptFile          string   `toml:"prompt_file" yaml:"prompt_file"`
	ContextVoiceDumps   int      `toml:"context_voice_dumps" yaml:"context_voice_dumps"`
	ContextCommentaries int      `toml:"context_commentaries" yaml:"context_commentaries"`
	ContextMaxChars     int      `toml:"context_max_chars" yaml:"context_max_chars"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format" yaml:"format"`
	Level         string `toml:"level" yaml:"level"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days"`
	MaxSizeMB     int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups" yaml:"max_backups"`
}

// Config encapsulates all configuration values for quill.
//
// Configuration sections by subsystem:
//   - Paths: inbox, notebooks, archive, state and log directories
//   - Ledger: database location and lease lifetime
//   - Watch: candidate filtering, stability window and poll cadence
//   - Archive: archival of processed originals
//   - Transcription: speech-to-text engine selection
//   - Routing: topic inference limits
//   - Annotation: referee commentary command and context budget
//   - Logging: log format, level, rotation and retention
type Config struct {
	Paths         Paths         `toml:"paths" yaml:"paths"`
	Ledger        Ledger        `toml:"ledger" yaml:"ledger"`
	Watch         Watch         `toml:"watch" yaml:"watch"`
	Archive       Archive       `toml:"archive" yaml:"archive"`
	Transcription Transcription `toml:"transcription" yaml:"transcription"`
	Routing       Routing       `toml:"routing" yaml:"routing"`
	Annotation    Annotation    `toml:"annotation" yaml:"annotation"`
	Logging       Logging       `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Files ending in .yaml or .yml are decoded as YAML,
// everything else as TOML.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories quill writes to. The inbox is
// created too so a fresh install can be pointed at immediately.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.InboxDir, c.Paths.NotebooksDir, c.Paths.StateDir, c.Paths.LogDir}
	if c.Archive.Enabled {
		dirs = append(dirs, c.Paths.ArchiveDir)
	}
	if dir := filepath.Dir(c.Ledger.Path); dir != "" {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
