// Package whisperx runs WhisperX through uvx and reads the transcript from
// its JSON output.
//
// WhisperX decodes compressed audio itself, so recordings are passed through
// unconverted. Model, language, CUDA and VAD method come from Config.
package whisperx
