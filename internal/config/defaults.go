package config

// EnvConfigPath names the environment variable consulted when no --config flag is given.
const EnvConfigPath = "QUILL_CONFIG"

const (
	defaultConfigPath             = "~/.config/quill/config.toml"
	defaultInboxDir               = "~/Voice/inbox"
	defaultNotebooksDir           = "~/Notes/voice"
	defaultArchiveDir             = "~/Voice/archive"
	defaultStateDir               = "~/.local/share/quill"
	defaultLogDir                 = "~/.local/share/quill/logs"
	defaultLedgerFile             = "ledger.db"
	defaultLeaseTTLSeconds        = 3600
	defaultStableSeconds          = 10
	defaultPollIntervalSeconds    = 5
	defaultArchiveSubdirFormat    = "%Y/%m"
	defaultTranscriptionEngine    = EngineWhisperCPP
	defaultWhisperCPPBinary       = "whisper-cli"
	defaultWhisperCPPThreads      = 4
	defaultWhisperLanguage        = "en"
	defaultFFmpegBinary           = "ffmpeg"
	defaultWhisperXModel          = "large-v3"
	defaultWhisperXVADMethod      = "silero"
	defaultRoutingMaxWords        = 6
	defaultRoutingMaxChars        = 80
	defaultAnnotationTimeout      = 180
	defaultAnnotationVoiceDumps   = 3
	defaultAnnotationCommentaries = 1
	defaultAnnotationMaxChars     = 20000
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultLogMaxSizeMB           = 20
	defaultLogMaxBackups          = 5
)

// Transcription engine tags.
const (
	EngineWhisperCPP = "whisper_cpp"
	EngineWhisperX   = "whisperx"
	EngineCommand    = "command"
)

var defaultAllowedExtensions = []string{".m4a", ".mp3", ".wav", ".aac"}

var defaultAnnotationCommand = []string{"codex", "exec", "--skip-git-repo-check", "--sandbox", "read-only", "-"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:     defaultInboxDir,
			NotebooksDir: defaultNotebooksDir,
			ArchiveDir:   defaultArchiveDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Ledger: Ledger{
			LeaseTTLSeconds: defaultLeaseTTLSeconds,
		},
		Watch: Watch{
			AllowedExtensions:    append([]string(nil), defaultAllowedExtensions...),
			StableSeconds:        defaultStableSeconds,
			PollIntervalSeconds:  defaultPollIntervalSeconds,
			FingerprintPrefilter: true,
			Fsnotify:             true,
		},
		Archive: Archive{
			Enabled:      true,
			SubdirFormat: defaultArchiveSubdirFormat,
		},
		Transcription: Transcription{
			Engine: defaultTranscriptionEngine,
			WhisperCPP: WhisperCPP{
				Binary:       defaultWhisperCPPBinary,
				Language:     defaultWhisperLanguage,
				Threads:      defaultWhisperCPPThreads,
				FFmpegBinary: defaultFFmpegBinary,
			},
			WhisperX: WhisperX{
				Model:     defaultWhisperXModel,
				Language:  defaultWhisperLanguage,
				VADMethod: defaultWhisperXVADMethod,
			},
		},
		Routing: Routing{
			InferTopicMaxWords: defaultRoutingMaxWords,
			InferTopicMaxChars: defaultRoutingMaxChars,
		},
		Annotation: Annotation{
			Enabled:             true,
			Command:             append([]string(nil), defaultAnnotationCommand...),
			TimeoutSeconds:      defaultAnnotationTimeout,
			ContextVoiceDumps:   defaultAnnotationVoiceDumps,
			ContextCommentaries: defaultAnnotationCommentaries,
			ContextMaxChars:     defaultAnnotationMaxChars,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}
