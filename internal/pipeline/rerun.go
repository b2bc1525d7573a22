package pipeline

import (
	"context"
	"errors"
	"fmt"

	"quill/internal/annotate"
	"quill/internal/ledger"
	"quill/internal/logging"
	"quill/internal/notebook"
	"quill/internal/services"
)

// ErrNoVoiceDump reports a notebook with nothing to comment on.
var ErrNoVoiceDump = errors.New("notebook has no voice dump")

// RerunOutcome summarizes a RerunAnnotation call.
type RerunOutcome struct {
	Notebook  string
	ContentID string
	Appended  bool
	// Reason is set when nothing was appended.
	Reason string
}

// RerunAnnotation drafts fresh commentary for the newest voice dump in
// nbPath. Without force it only acts when the notebook ends in a voice dump
// or its latest commentary is a failure placeholder. Failures are returned
// and nothing is appended.
func (o *Orchestrator) RerunAnnotation(ctx context.Context, nbPath string, force bool) (RerunOutcome, error) {
	outcome := RerunOutcome{Notebook: nbPath}
	if !o.referee.Enabled() {
		return outcome, services.Wrap(services.ErrConfiguration, "annotate", "rerun", "annotation is disabled", nil)
	}

	unlock, err := notebook.Lock(ctx, nbPath)
	if err != nil {
		return outcome, err
	}
	defer func() {
		if err := unlock(); err != nil {
			o.logger.Warn("notebook unlock failed", logging.String("notebook", nbPath), logging.Error(err))
		}
	}()

	latest, err := notebook.LatestSections(nbPath)
	if err != nil {
		return outcome, err
	}
	if latest.VoiceDump == "" {
		return outcome, fmt.Errorf("%w: %s", ErrNoVoiceDump, nbPath)
	}
	if id, ok := notebook.MarkerID(latest.VoiceDump); ok {
		outcome.ContentID = id
		ctx = services.WithContentID(ctx, id)
	}
	logger := logging.WithContext(ctx, o.logger)

	if !force && latest.LastKind == notebook.KindCommentary && !annotate.IsPlaceholder(latest.Commentary) {
		outcome.Reason = "latest voice dump already has commentary"
		logger.Info("commentary already present", logging.String("notebook", nbPath))
		return outcome, nil
	}

	commentary, err := o.referee.Draft(services.WithStage(ctx, "annotate"), nbPath, latest.VoiceDump)
	if err != nil {
		return outcome, err
	}
	if err := notebook.Append(nbPath, commentary+"\n"); err != nil {
		return outcome, err
	}
	outcome.Appended = true
	logger.Info("commentary appended",
		logging.String("notebook", nbPath),
		logging.String(logging.FieldEventType, "rerun_annotation"),
	)

	if outcome.ContentID == "" {
		return outcome, nil
	}
	if _, err := o.store.UpdateAnnotation(ctx, outcome.ContentID, ledger.AnnotationOK); err != nil {
		return outcome, err
	}
	return outcome, nil
}
