package annotate

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"quill/internal/notebook"
	"quill/internal/services"
)

//go:embed referee_prompt.md
var defaultPrompt string

// LoadTemplate reads the referee instructions from path, or returns the
// built-in instructions when path is empty.
func LoadTemplate(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return strings.TrimSpace(defaultPrompt), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrConfiguration, "annotate", "prompt", fmt.Sprintf("prompt file not found: %s", path), nil)
		}
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// BuildPrompt assembles the stdin payload: date line, instructions, the
// optional notebook context and the voice dump to critique.
func BuildPrompt(template string, today time.Time, contextMarkdown, latestDump string) string {
	parts := []string{
		fmt.Sprintf("Today is %s.", today.Format(notebook.DayLayout)),
		"",
		template,
	}
	if ctx := strings.TrimSpace(contextMarkdown); ctx != "" {
		parts = append(parts,
			"",
			"---",
			"## Context From Notebook (most recent sections)",
			ctx,
		)
	}
	parts = append(parts,
		"",
		"---",
		"## Latest Voice Dump (critique this)",
		strings.TrimSpace(latestDump),
		"",
	)
	return strings.Join(parts, "\n")
}
