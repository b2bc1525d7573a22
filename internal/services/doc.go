// Package services defines shared utilities consumed by the ingestion pipeline
// and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp content ids, pipeline stages, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     tool failures (missing binary, nonzero exit, empty output, timeout)
//     without parsing messages.
//
// Subpackages wrap individual external tools (whisper.cpp, WhisperX, a generic
// transcription command, and the referee annotation CLI).
package services
