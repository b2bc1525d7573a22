// Package transcribe selects the speech-to-text engine named in the
// configuration and bounds each run with the configured timeout.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/services/command"
	"quill/internal/services/whispercpp"
	"quill/internal/services/whisperx"
)

// Transcriber turns a recording into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, path string) (string, error)
}

// New builds the engine selected by cfg.Transcription.Engine.
func New(cfg *config.Config, logger *slog.Logger) (Transcriber, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "engine", "config required", nil)
	}
	var engine Transcriber
	tc := cfg.Transcription
	switch tc.Engine {
	case config.EngineWhisperCPP:
		engine = whispercpp.New(whispercpp.Config{
			Binary:       tc.WhisperCPP.Binary,
			ModelPath:    tc.WhisperCPP.ModelPath,
			Language:     tc.WhisperCPP.Language,
			Threads:      tc.WhisperCPP.Threads,
			ExtraArgs:    tc.WhisperCPP.ExtraArgs,
			FFmpegBinary: tc.WhisperCPP.FFmpegBinary,
		})
	case config.EngineWhisperX:
		engine = whisperx.New(whisperx.Config{
			Model:       tc.WhisperX.Model,
			Language:    tc.WhisperX.Language,
			CUDAEnabled: tc.WhisperX.CUDAEnabled,
			VADMethod:   tc.WhisperX.VADMethod,
		})
	case config.EngineCommand:
		engine = command.New(tc.Command.Argv)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "engine",
			fmt.Sprintf("unknown transcription.engine %q", tc.Engine), nil)
	}
	return &timed{
		engine:  engine,
		timeout: cfg.TranscriptionTimeout(),
		logger:  logging.NewComponentLogger(logger, "transcribe"),
	}, nil
}

type timed struct {
	engine  Transcriber
	timeout time.Duration
	logger  *slog.Logger
}

func (t *timed) Name() string { return t.engine.Name() }

func (t *timed) Transcribe(ctx context.Context, path string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	logger := logging.WithContext(ctx, t.logger)
	started := time.Now()
	logger.Info("transcription started", logging.String("engine", t.engine.Name()), logging.String("source", path))

	text, err := t.engine.Transcribe(ctx, path)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
			err = services.Wrap(services.ErrTimeout, "transcribe", t.engine.Name(),
				fmt.Sprintf("exceeded %s", t.timeout), err)
		}
		return "", err
	}
	logger.Info("transcription completed",
		logging.String("engine", t.engine.Name()),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
		logging.Int("chars", len(text)),
	)
	return text, nil
}
