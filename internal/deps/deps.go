package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"quill/internal/config"
)

// Requirement defines an external binary quill shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configured engine and referee need.
func Requirements(cfg *config.Config) []Requirement {
	var reqs []Requirement
	switch cfg.Transcription.Engine {
	case config.EngineWhisperCPP:
		reqs = append(reqs,
			Requirement{
				Name:        "whisper.cpp",
				Command:     cfg.Transcription.WhisperCPP.Binary,
				Description: "Required for transcription",
			},
			Requirement{
				Name:        "FFmpeg",
				Command:     cfg.Transcription.WhisperCPP.FFmpegBinary,
				Description: "Converts non-WAV recordings for whisper.cpp",
				Optional:    onlyWAV(cfg.Watch.AllowedExtensions),
			},
		)
	case config.EngineWhisperX:
		reqs = append(reqs, Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX-driven transcription",
		})
	case config.EngineCommand:
		reqs = append(reqs, Requirement{
			Name:        "Transcription command",
			Command:     firstArg(cfg.Transcription.Command.Argv),
			Description: "Required for transcription",
		})
	}
	if cfg.Annotation.Enabled {
		reqs = append(reqs, Requirement{
			Name:        "Referee",
			Command:     firstArg(cfg.Annotation.Command),
			Description: "Writes AI commentary; failures leave a placeholder",
			Optional:    true,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

func firstArg(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}

func onlyWAV(exts []string) bool {
	for _, ext := range exts {
		if !strings.EqualFold(ext, ".wav") {
			return false
		}
	}
	return len(exts) > 0
}
