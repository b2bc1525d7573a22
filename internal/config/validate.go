package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateRouting(); err != nil {
		return err
	}
	if err := c.validateAnnotation(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InboxDir == c.Paths.NotebooksDir {
		return errors.New("paths.inbox_dir and paths.notebooks_dir must differ")
	}
	if c.Archive.Enabled && c.Paths.ArchiveDir == c.Paths.InboxDir {
		return errors.New("paths.archive_dir must not be the inbox directory")
	}
	return nil
}

func (c *Config) validateLedger() error {
	if c.Ledger.LeaseTTLSeconds <= 0 {
		return errors.New("ledger.lease_ttl_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if len(c.Watch.AllowedExtensions) == 0 {
		return errors.New("watch.allowed_extensions must list at least one extension")
	}
	if c.Watch.StableSeconds < 0 {
		return errors.New("watch.stable_seconds must be zero or positive")
	}
	if c.Watch.PollIntervalSeconds <= 0 {
		return errors.New("watch.poll_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Engine {
	case EngineWhisperCPP, EngineWhisperX:
	case EngineCommand:
		if len(c.Transcription.Command.Argv) == 0 {
			return errors.New("transcription.command.argv is required when engine is \"command\"")
		}
	default:
		return fmt.Errorf("transcription.engine: unsupported value %q (want %s, %s or %s)",
			c.Transcription.Engine, EngineWhisperCPP, EngineWhisperX, EngineCommand)
	}
	if c.Transcription.TimeoutSeconds < 0 {
		return errors.New("transcription.timeout_seconds must be zero or positive")
	}
	switch c.Transcription.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.whisperx.vad_method: unsupported value %q", c.Transcription.WhisperX.VADMethod)
	}
	return nil
}

func (c *Config) validateRouting() error {
	if c.Routing.InferTopicMaxWords <= 0 {
		return errors.New("routing.infer_topic_max_words must be positive")
	}
	if c.Routing.InferTopicMaxChars <= 0 {
		return errors.New("routing.infer_topic_max_chars must be positive")
	}
	return nil
}

func (c *Config) validateAnnotation() error {
	if !c.Annotation.Enabled {
		return nil
	}
	if len(c.Annotation.Command) == 0 || strings.TrimSpace(c.Annotation.Command[0]) == "" {
		return errors.New("annotation.command must name an executable")
	}
	if c.Annotation.ContextVoiceDumps < 0 || c.Annotation.ContextCommentaries < 0 {
		return errors.New("annotation context counts must be zero or positive")
	}
	if c.Annotation.ContextMaxChars < 0 {
		return errors.New("annotation.context_max_chars must be zero or positive")
	}
	switch c.Annotation.ReasoningEffort {
	case "", "minimal", "low", "medium", "high":
	default:
		return fmt.Errorf("annotation.reasoning_effort: unsupported value %q", c.Annotation.ReasoningEffort)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
