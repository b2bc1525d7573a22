package preflight

import (
	"quill/internal/config"
	"quill/internal/deps"
)

// minFreeBytes is the free space below which a writable directory is flagged.
const minFreeBytes = 100 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	results = append(results, CheckDirectoryAccess("Notebooks directory", cfg.Paths.NotebooksDir))
	results = append(results, CheckFreeSpace("Notebooks free space", cfg.Paths.NotebooksDir, minFreeBytes))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Archive.Enabled {
		results = append(results, CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir))
		results = append(results, CheckFreeSpace("Archive free space", cfg.Paths.ArchiveDir, minFreeBytes))
	}

	if cfg.Transcription.Engine == config.EngineWhisperCPP {
		results = append(results, CheckReadableFile("whisper.cpp model", cfg.Transcription.WhisperCPP.ModelPath))
	}

	if cfg.Annotation.Enabled && cfg.Annotation.PromptFile != "" {
		results = append(results, CheckReadableFile("Referee prompt", cfg.Annotation.PromptFile))
	}
	return results
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both "watch" startup and "doctor" use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
