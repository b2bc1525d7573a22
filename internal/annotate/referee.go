package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/notebook"
)

const placeholderTag = "(Referee unavailable;"

// Referee drafts commentary for the newest voice dump of a notebook.
type Referee struct {
	annotator Annotator
	cfg       config.Annotation
	logger    *slog.Logger
	now       func() time.Time
}

// RefereeOption customizes a Referee.
type RefereeOption func(*Referee)

// WithClock overrides the clock used for headings and the prompt date.
func WithClock(now func() time.Time) RefereeOption {
	return func(r *Referee) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReferee wires annotator to the annotation settings in cfg.
func NewReferee(cfg *config.Config, annotator Annotator, logger *slog.Logger, opts ...RefereeOption) *Referee {
	r := &Referee{
		annotator: annotator,
		cfg:       cfg.Annotation,
		logger:    logging.NewComponentLogger(logger, "referee"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig builds a Referee backed by the configured CLI runner.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...RefereeOption) *Referee {
	runner := NewRunner(RunnerConfig{
		Command:         cfg.Annotation.Command,
		Model:           cfg.Annotation.Model,
		ReasoningEffort: cfg.Annotation.ReasoningEffort,
		Timeout:         cfg.AnnotationTimeout(),
	}, logger)
	return NewReferee(cfg, runner, logger, opts...)
}

// Enabled reports whether annotation is switched on.
func (r *Referee) Enabled() bool {
	return r != nil && r.cfg.Enabled
}

// Today returns the current date according to the referee's clock.
func (r *Referee) Today() time.Time {
	return r.now()
}

// Draft builds the prompt from the notebook at path and returns commentary
// for latestDump, already carrying a dated heading. The newest voice dump is
// left out of the context because the prompt carries it separately.
func (r *Referee) Draft(ctx context.Context, path, latestDump string) (string, error) {
	template, err := LoadTemplate(r.cfg.PromptFile)
	if err != nil {
		return "", err
	}
	contextMarkdown, err := notebook.ExtractContext(path, notebook.ContextBudget{
		VoiceDumps:          r.cfg.ContextVoiceDumps,
		Commentaries:        r.cfg.ContextCommentaries,
		MaxChars:            r.cfg.ContextMaxChars,
		SkipLatestVoiceDump: true,
	})
	if err != nil {
		return "", err
	}

	today := r.now()
	prompt := BuildPrompt(template, today, contextMarkdown, latestDump)
	logging.WithContext(ctx, r.logger).Debug("referee prompt built",
		logging.Int("prompt_chars", len(prompt)),
		logging.Int("context_chars", len(contextMarkdown)),
	)

	text, err := r.annotator.Annotate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return notebook.EnsureCommentaryHeading(text, today), nil
}

// Placeholder is the commentary section written when the referee fails.
func Placeholder(day time.Time, notebookPath string, cause error) string {
	var b strings.Builder
	b.WriteString(notebook.CommentaryHeading(day))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s rerun: `%s`)\n", placeholderTag, RerunCommand(notebookPath))
	if cause != nil {
		fmt.Fprintf(&b, "\nError: %s\n", cause)
	}
	return b.String()
}

// RerunCommand is the CLI invocation that retries commentary for a notebook.
func RerunCommand(notebookPath string) string {
	return fmt.Sprintf("quill rerun-annotation %q", notebookPath)
}

// IsPlaceholder reports whether a commentary section is a failure
// placeholder rather than real commentary.
func IsPlaceholder(section string) bool {
	return strings.Contains(section, placeholderTag)
}
