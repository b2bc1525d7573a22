package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"quill/internal/annotate"
	"quill/internal/archive"
	"quill/internal/config"
	"quill/internal/contentid"
	"quill/internal/ledger"
	"quill/internal/logging"
	"quill/internal/notebook"
	"quill/internal/router"
	"quill/internal/services"
)

// untitledTopic names the notebook when a topic sanitizes to nothing.
const untitledTopic = "Untitled"

// Transcriber converts a recording into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Orchestrator runs recordings through the pipeline against one ledger.
type Orchestrator struct {
	cfg         *config.Config
	store       *ledger.Store
	transcriber Transcriber
	classifier  router.Classifier
	referee     *annotate.Referee
	archiver    *archive.Archiver
	logger      *slog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClassifier replaces the heuristic topic router.
func WithClassifier(classifier router.Classifier) Option {
	return func(o *Orchestrator) {
		if classifier != nil {
			o.classifier = classifier
		}
	}
}

// WithReferee replaces the referee built from configuration.
func WithReferee(referee *annotate.Referee) Option {
	return func(o *Orchestrator) {
		o.referee = referee
	}
}

// New wires an orchestrator. The referee and archiver follow cfg unless
// overridden.
func New(cfg *config.Config, store *ledger.Store, transcriber Transcriber, logger *slog.Logger, opts ...Option) *Orchestrator {
	logger = logging.NewComponentLogger(logger, "pipeline")
	o := &Orchestrator{
		cfg:         cfg,
		store:       store,
		transcriber: transcriber,
		classifier:  router.NewHeuristic(cfg.Routing),
		logger:      logger,
	}
	if cfg.Annotation.Enabled {
		o.referee = annotate.NewFromConfig(cfg, logger)
	}
	if cfg.Archive.Enabled {
		o.archiver = archive.New(cfg.Paths.ArchiveDir, cfg.Archive.SubdirFormat)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one recording end to end. force reprocesses a file the
// ledger already committed and writes past an existing notebook marker.
//
// A *TransformError means transcription failed and the entry is marked
// failed; any other error is an infrastructure failure.
func (o *Orchestrator) Process(ctx context.Context, path string, force bool) (Outcome, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Outcome{SourcePath: path}, fmt.Errorf("resolve %s: %w", path, err)
	}
	outcome := Outcome{SourcePath: abs}

	id, fp, err := contentid.Identify(abs)
	if errors.Is(err, contentid.ErrVanished) {
		o.logger.Debug("recording vanished before hashing",
			logging.String("source_file", abs),
			logging.String(logging.FieldEventType, "recording_vanished"),
		)
		outcome.State = StateSkipped
		outcome.SkipReason = SkipVanished
		return outcome, nil
	}
	if err != nil {
		return outcome, err
	}
	outcome.ContentID = id
	outcome.State = StateHashed

	ctx = services.WithContentID(ctx, id)
	logger := logging.WithContext(ctx, o.logger)

	processed, err := o.store.IsProcessed(ctx, id)
	if err != nil {
		return outcome, err
	}
	if processed && !force {
		logger.Info("recording already processed",
			logging.String("source_file", abs),
			logging.String(logging.FieldEventType, "already_processed"),
		)
		outcome.State = StateSkipped
		outcome.SkipReason = SkipAlreadyProcessed
		return outcome, nil
	}
	acquired, err := o.store.AcquireLease(ctx, id, abs, fp, force)
	if err != nil {
		return outcome, err
	}
	if !acquired {
		logger.Info("recording leased by another worker",
			logging.String("source_file", abs),
			logging.String(logging.FieldEventType, "lease_skipped"),
		)
		outcome.State = StateSkipped
		outcome.SkipReason = SkipLeaseHeld
		return outcome, nil
	}
	outcome.State = StateLeased
	logger.Info("processing recording",
		logging.String("source_file", abs),
		logging.Int64("size_bytes", fp.Size),
		logging.Bool("force", force),
		logging.String("lease_owner", o.store.Owner()),
		logging.String(logging.FieldEventType, "process_start"),
	)

	transcript, err := o.transcriber.Transcribe(services.WithStage(ctx, "transcribe"), abs)
	if err != nil {
		outcome.State = StateFailed
		if commitErr := o.store.CommitFailed(ctx, id, err.Error()); commitErr != nil {
			if errors.Is(commitErr, ledger.ErrLeaseLost) {
				o.leaseLost(logger, abs, commitErr, &outcome)
				return outcome, nil
			}
			return outcome, errors.Join(&TransformError{SourcePath: abs, ContentID: id, Err: err}, commitErr)
		}
		logging.ErrorWithContext(logger, "transcription failed", "transcription_failed",
			logging.String("source_file", abs),
			logging.String("reason", services.Reason(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the transcription engine settings and rerun with quill process"),
		)
		return outcome, &TransformError{SourcePath: abs, ContentID: id, Err: err}
	}
	outcome.State = StateTransformed

	if err := o.deliver(ctx, logger, abs, id, fp, transcript, force, &outcome); err != nil {
		if errors.Is(err, ledger.ErrLeaseLost) {
			o.leaseLost(logger, abs, err, &outcome)
			return outcome, nil
		}
		outcome.FailedAt = outcome.State
		outcome.State = StateFailed
		if commitErr := o.store.CommitFailed(ctx, id, err.Error()); commitErr != nil {
			if !errors.Is(commitErr, ledger.ErrLeaseLost) {
				return outcome, errors.Join(err, commitErr)
			}
			logging.WarnWithContext(logger, "lease lost before failure could be recorded", "lease_lost",
				logging.String("source_file", abs),
				logging.String("lease_owner", o.store.Owner()),
				logging.Error(commitErr),
			)
		}
		return outcome, err
	}
	return outcome, nil
}

// leaseLost marks outcome skipped after another worker took the lease over.
// Whatever that worker commits stands.
func (o *Orchestrator) leaseLost(logger *slog.Logger, abs string, err error, outcome *Outcome) {
	logging.WarnWithContext(logger, "lease taken over by another worker; result discarded", "lease_lost",
		logging.String("source_file", abs),
		logging.String("lease_owner", o.store.Owner()),
		logging.Error(err),
		logging.String(logging.FieldImpact, "ledger entry left to the current lease holder"),
	)
	outcome.State = StateSkipped
	outcome.SkipReason = SkipLeaseLost
}

// deliver routes the transcript, copies the original into the archive,
// writes the notebook sections, removes the original and commits the entry.
func (o *Orchestrator) deliver(ctx context.Context, logger *slog.Logger, abs, id string, fp contentid.Fingerprint, transcript string, force bool, outcome *Outcome) error {
	dumpedAt := fp.ModTime()
	decision := o.classifier.Classify(transcript, filepath.Base(abs), dumpedAt)
	title := notebook.SanitizeTopic(decision.Topic, untitledTopic)
	nbPath := notebook.PathFor(o.cfg.Paths.NotebooksDir, title)
	outcome.Topic = title
	outcome.Mode = decision.Mode
	outcome.Destination = nbPath

	created, err := notebook.Ensure(nbPath, title)
	if err != nil {
		return err
	}
	outcome.State = StateRouted
	logger.Info("recording routed",
		logging.String("topic", title),
		logging.String("topic_source", decision.TopicSource),
		logging.String("mode", decision.Mode),
		logging.Bool("new_notebook", created),
		logging.String("notebook", nbPath),
	)

	archiveRef := o.archiveCopy(logger, abs, dumpedAt, id)
	dump := notebook.VoiceDump{
		DumpedAt:    dumpedAt,
		SourceAudio: o.sourceAudioRef(abs, archiveRef),
		Mode:        decision.Mode,
		Transcript:  transcript,
		ContentID:   id,
	}

	unlock, err := notebook.Lock(ctx, nbPath)
	if err != nil {
		return err
	}
	err = o.writeSections(ctx, logger, nbPath, dump, force, outcome)
	if unlockErr := unlock(); unlockErr != nil {
		logging.WarnWithContext(logger, "notebook unlock failed", "notebook_unlock_failed",
			logging.String("notebook", nbPath),
			logging.Error(unlockErr),
		)
	}
	if err != nil {
		return err
	}
	status := outcome.AnnotationStatus

	if archiveRef != "" {
		o.archiveFinalize(logger, abs, archiveRef)
		outcome.Archive = archiveRef
		outcome.State = StateArchived
	}

	commit := ledger.Commit{
		SourcePath:       &abs,
		Fingerprint:      &fp,
		DestinationRef:   &nbPath,
		AnnotationStatus: &status,
	}
	if archiveRef != "" {
		commit.ArchiveRef = &archiveRef
	}
	if err := o.store.CommitProcessed(ctx, id, commit); err != nil {
		return err
	}
	outcome.State = StateDone
	logger.Info("recording processed",
		logging.String("notebook", nbPath),
		logging.String("annotation_status", string(status)),
		logging.String("archive", archiveRef),
		logging.Bool("duplicate", outcome.Duplicate),
		logging.String(logging.FieldEventType, "process_complete"),
	)
	return nil
}

// writeSections appends the voice dump and its commentary while the caller
// holds the notebook lock. A notebook that already carries the recording's
// marker is left untouched unless force is set.
func (o *Orchestrator) writeSections(ctx context.Context, logger *slog.Logger, nbPath string, dump notebook.VoiceDump, force bool, outcome *Outcome) error {
	if !force {
		present, err := notebook.ContainsMarker(nbPath, dump.ContentID)
		if err != nil {
			return err
		}
		if present {
			logger.Info("notebook already holds this recording",
				logging.String("notebook", nbPath),
				logging.String(logging.FieldEventType, "duplicate_marker"),
			)
			outcome.Duplicate = true
			outcome.AnnotationStatus = ledger.AnnotationSkipped
			outcome.State = StateAnnotated
			return nil
		}
	}

	block := notebook.FormatVoiceDump(dump)
	if err := notebook.Append(nbPath, block); err != nil {
		return err
	}
	outcome.State = StateAppended

	status, err := o.addCommentary(ctx, logger, nbPath, block)
	if err != nil {
		return err
	}
	outcome.AnnotationStatus = status
	outcome.State = StateAnnotated
	return nil
}

// addCommentary appends referee commentary for block, or a placeholder
// when the referee cannot be reached.
func (o *Orchestrator) addCommentary(ctx context.Context, logger *slog.Logger, nbPath, block string) (ledger.AnnotationStatus, error) {
	if !o.referee.Enabled() {
		return ledger.AnnotationDisabled, nil
	}
	commentary, err := o.referee.Draft(services.WithStage(ctx, "annotate"), nbPath, block)
	if err == nil {
		if err := notebook.Append(nbPath, commentary+"\n"); err != nil {
			return "", err
		}
		return ledger.AnnotationOK, nil
	}

	logging.WarnWithContext(logger, "referee unavailable; writing placeholder", "referee_unavailable",
		logging.String("notebook", nbPath),
		logging.String("reason", services.Reason(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run "+annotate.RerunCommand(nbPath)+" once the referee works"),
		logging.String(logging.FieldImpact, "voice dump saved without commentary"),
	)
	if err := notebook.Append(nbPath, annotate.Placeholder(o.referee.Today(), nbPath, err)); err != nil {
		return "", err
	}
	return ledger.AnnotationUnavailable, nil
}

// sourceAudioRef is the location shown in the voice dump header: the
// archived copy relative to the notebooks directory, or the original name
// when nothing was archived.
func (o *Orchestrator) sourceAudioRef(abs, archiveRef string) string {
	if archiveRef == "" {
		return filepath.Base(abs)
	}
	if rel, err := filepath.Rel(o.cfg.Paths.NotebooksDir, archiveRef); err == nil {
		return filepath.ToSlash(rel)
	}
	return archiveRef
}

// archiveCopy copies the original into the archive and returns where it
// landed, or "" when archival is off or the copy failed. Failures are
// warnings; the original stays in the inbox.
func (o *Orchestrator) archiveCopy(logger *slog.Logger, abs string, dumpedAt time.Time, id string) string {
	if o.archiver == nil {
		return ""
	}
	dest, err := o.archiver.Copy(abs, dumpedAt, id)
	if err != nil {
		logging.WarnWithContext(logger, "archive failed", "archive_failed",
			logging.String("source_file", abs),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the archive directory"),
			logging.String(logging.FieldImpact, "original recording left in place"),
		)
		return ""
	}
	logger.Debug("recording copied to archive", logging.String("archive", dest))
	return dest
}

// archiveFinalize removes the inbox original once the notebook holds the
// content. The archived copy stays authoritative if removal fails.
func (o *Orchestrator) archiveFinalize(logger *slog.Logger, abs, dest string) {
	if err := o.archiver.Finalize(abs); err != nil {
		logging.WarnWithContext(logger, "original could not be removed after archiving", "archive_finalize_failed",
			logging.String("source_file", abs),
			logging.String("archive", dest),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the inbox directory"),
			logging.String(logging.FieldImpact, "duplicate copy left in the inbox"),
		)
		return
	}
	logger.Debug("recording archived", logging.String("archive", dest))
}
