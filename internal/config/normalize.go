package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeWatch()
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	if err := c.normalizeAnnotation(); err != nil {
		return err
	}
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.inbox_dir", &c.Paths.InboxDir, defaultInboxDir},
		{"paths.notebooks_dir", &c.Paths.NotebooksDir, defaultNotebooksDir},
		{"paths.archive_dir", &c.Paths.ArchiveDir, defaultArchiveDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeLedger() error {
	path := strings.TrimSpace(c.Ledger.Path)
	if path == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	c.Ledger.Path = expanded
	return nil
}

func (c *Config) normalizeWatch() {
	seen := make(map[string]struct{}, len(c.Watch.AllowedExtensions))
	exts := make([]string, 0, len(c.Watch.AllowedExtensions))
	for _, ext := range c.Watch.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.Watch.AllowedExtensions = exts
}

func (c *Config) normalizeTranscription() error {
	c.Transcription.Engine = strings.ToLower(strings.TrimSpace(c.Transcription.Engine))
	if c.Transcription.Engine == "" {
		c.Transcription.Engine = defaultTranscriptionEngine
	}
	// Accept the hyphenated spelling users tend to type.
	c.Transcription.Engine = strings.ReplaceAll(c.Transcription.Engine, "-", "_")

	w := &c.Transcription.WhisperCPP
	w.Binary = strings.TrimSpace(w.Binary)
	if w.Binary == "" {
		w.Binary = defaultWhisperCPPBinary
	}
	w.FFmpegBinary = strings.TrimSpace(w.FFmpegBinary)
	if w.FFmpegBinary == "" {
		w.FFmpegBinary = defaultFFmpegBinary
	}
	w.Language = strings.ToLower(strings.TrimSpace(w.Language))
	if w.Threads <= 0 {
		w.Threads = defaultWhisperCPPThreads
	}
	if strings.TrimSpace(w.ModelPath) != "" {
		expanded, err := expandPath(strings.TrimSpace(w.ModelPath))
		if err != nil {
			return fmt.Errorf("transcription.whisper_cpp.model_path: %w", err)
		}
		w.ModelPath = expanded
	}

	x := &c.Transcription.WhisperX
	x.Model = strings.TrimSpace(x.Model)
	if x.Model == "" {
		x.Model = defaultWhisperXModel
	}
	x.Language = strings.ToLower(strings.TrimSpace(x.Language))
	x.VADMethod = strings.ToLower(strings.TrimSpace(x.VADMethod))
	if x.VADMethod == "" {
		x.VADMethod = defaultWhisperXVADMethod
	}
	return nil
}

func (c *Config) normalizeAnnotation() error {
	c.Annotation.Model = strings.TrimSpace(c.Annotation.Model)
	c.Annotation.ReasoningEffort = strings.ToLower(strings.TrimSpace(c.Annotation.ReasoningEffort))
	if c.Annotation.TimeoutSeconds <= 0 {
		c.Annotation.TimeoutSeconds = defaultAnnotationTimeout
	}
	if len(c.Annotation.Command) == 0 {
		c.Annotation.Command = append([]string(nil), defaultAnnotationCommand...)
	}
	if strings.TrimSpace(c.Annotation.PromptFile) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Annotation.PromptFile))
		if err != nil {
			return fmt.Errorf("annotation.prompt_file: %w", err)
		}
		c.Annotation.PromptFile = expanded
	}
	return nil
}

func (c *Config) normalizeArchive() {
	c.Archive.SubdirFormat = strings.TrimSpace(c.Archive.SubdirFormat)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}

// LeaseTTL returns the configured ledger lease lifetime.
func (c *Config) LeaseTTL() time.Duration {
	return time.Duration(c.Ledger.LeaseTTLSeconds) * time.Second
}

// StableWindow returns how long a file must stay unchanged before it is processed.
func (c *Config) StableWindow() time.Duration {
	return time.Duration(c.Watch.StableSeconds) * time.Second
}

// PollInterval returns the delay between watch cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollIntervalSeconds) * time.Second
}

// TranscriptionTimeout returns the transform deadline, or zero for none.
func (c *Config) TranscriptionTimeout() time.Duration {
	if c.Transcription.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Transcription.TimeoutSeconds) * time.Second
}

// AnnotationTimeout returns the hard deadline for one annotation run.
func (c *Config) AnnotationTimeout() time.Duration {
	return time.Duration(c.Annotation.TimeoutSeconds) * time.Second
}
