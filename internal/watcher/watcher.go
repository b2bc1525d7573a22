package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"quill/internal/config"
	"quill/internal/contentid"
	"quill/internal/ledger"
	"quill/internal/logging"
	"quill/internal/pipeline"
	"quill/internal/stability"
)

// minCycleGap spaces cycles triggered by filesystem events.
const minCycleGap = time.Second

// Processor runs one recording through the pipeline.
type Processor interface {
	Process(ctx context.Context, path string, force bool) (pipeline.Outcome, error)
}

// CycleReport counts what one scan did.
type CycleReport struct {
	Candidates int
	Filtered   int
	Ready      int
	Processed  int
	Skipped    int
	Failed     int
}

// Watcher drives scan cycles over the inbox.
type Watcher struct {
	cfg       *config.Config
	store     *ledger.Store
	processor Processor
	tracker   *stability.Tracker
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	snapshot map[string]contentid.Fingerprint
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithClock sets the clock used for stability timing.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

// WithSleep replaces the wait used by Once between its two sightings.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Watcher) {
		if sleep != nil {
			w.sleep = sleep
		}
	}
}

// New builds a watcher. store supplies the committed-source snapshot used
// by the fingerprint prefilter.
func New(cfg *config.Config, store *ledger.Store, processor Processor, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		cfg:       cfg,
		store:     store,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "watcher"),
		now:       time.Now,
		sleep:     sleepContext,
		snapshot:  make(map[string]contentid.Fingerprint),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.tracker = stability.New(cfg.StableWindow(), stability.WithClock(w.now))
	return w
}

// Run scans until ctx is canceled. A cycle in flight when ctx is canceled is
// finished before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	wake, stop := w.startNotifier(ctx)
	defer stop()

	w.logger.Info("watching inbox",
		logging.String("inbox", w.cfg.Paths.InboxDir),
		logging.Duration("poll_interval", w.cfg.PollInterval()),
		logging.Duration("stable_window", w.cfg.StableWindow()),
		logging.Bool("fsnotify", wake != nil),
	)
	for {
		started := time.Now()
		if _, err := w.RunOnce(ctx); err != nil {
			logging.ErrorWithContext(w.logger, "scan cycle failed", "cycle_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check inbox permissions and ledger access"),
			)
		}
		if !w.wait(ctx, wake, started) {
			w.logger.Info("watcher stopped")
			return nil
		}
	}
}

// wait sleeps for the poll interval or until wake fires, and reports false
// once ctx is done.
func (w *Watcher) wait(ctx context.Context, wake <-chan struct{}, cycleStarted time.Time) bool {
	timer := time.NewTimer(w.cfg.PollInterval())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-wake:
	}
	if gap := minCycleGap - time.Since(cycleStarted); gap > 0 {
		if err := sleepContext(ctx, gap); err != nil {
			return false
		}
	}
	return true
}

// Once runs a single processing cycle for one-shot use. The inbox is sighted
// once, the stability window is waited out, and the second sighting
// processes whatever held still.
func (w *Watcher) Once(ctx context.Context) (CycleReport, error) {
	if err := w.Prime(ctx); err != nil {
		return CycleReport{}, err
	}
	if err := w.sleep(ctx, w.cfg.StableWindow()); err != nil {
		return CycleReport{}, err
	}
	return w.RunOnce(ctx)
}

// Prime records a first sighting of every candidate without processing.
func (w *Watcher) Prime(ctx context.Context) error {
	_, list, err := w.scan(ctx)
	if err != nil {
		return err
	}
	w.tracker.ObserveFingerprints(list.paths, list.fingerprints)
	return nil
}

type listing struct {
	paths        []string
	fingerprints map[string]contentid.Fingerprint
}

// scan lists the inbox and applies the prefilter. It returns the number of
// raw candidates alongside the surviving listing.
func (w *Watcher) scan(ctx context.Context) (int, listing, error) {
	paths, fps, err := ListCandidates(w.cfg.Paths.InboxDir, w.cfg.Watch.AllowedExtensions)
	if err != nil {
		return 0, listing{}, err
	}
	total := len(paths)
	if !w.cfg.Watch.FingerprintPrefilter || total == 0 {
		return total, listing{paths: paths, fingerprints: fps}, nil
	}

	w.refreshSnapshot(ctx)
	kept := paths[:0]
	for _, path := range paths {
		if committed, ok := w.snapshot[path]; ok && committed.Equal(fps[path]) {
			delete(fps, path)
			continue
		}
		kept = append(kept, path)
	}
	return total, listing{paths: kept, fingerprints: fps}, nil
}

func (w *Watcher) refreshSnapshot(ctx context.Context) {
	if w.store == nil {
		return
	}
	index, err := w.store.SourceSnapshotIndex(ctx)
	if err != nil {
		logging.WarnWithContext(w.logger, "ledger snapshot refresh failed", "snapshot_refresh_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "committed files may be rehashed this cycle"),
		)
		return
	}
	// The ledger indexes only committed paths; entries learned from
	// already_processed skips stay.
	for path, fp := range index {
		w.snapshot[path] = fp
	}
}

// RunOnce performs one scan cycle. Processing continues on a context that
// outlives cancellation so a started cycle always completes.
func (w *Watcher) RunOnce(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	total, list, err := w.scan(ctx)
	if err != nil {
		return report, err
	}
	report.Candidates = total
	report.Filtered = total - len(list.paths)

	ready := w.tracker.ObserveFingerprints(list.paths, list.fingerprints)
	report.Ready = len(ready)
	if len(ready) == 0 {
		return report, nil
	}
	sortByMtime(ready, list.fingerprints)

	var readyBytes uint64
	for _, path := range ready {
		readyBytes += uint64(list.fingerprints[path].Size)
	}
	w.logger.Info("recordings ready",
		logging.Int("count", len(ready)),
		logging.String("total_size", humanize.Bytes(readyBytes)),
		logging.String(logging.FieldEventType, "cycle_ready"),
	)

	procCtx := context.WithoutCancel(ctx)
	for _, path := range ready {
		w.processOne(procCtx, path, list.fingerprints[path], &report)
		w.tracker.Forget(path)
	}

	w.logger.Info("scan cycle complete",
		logging.Int("processed", report.Processed),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Int("tracked", w.tracker.Tracked()),
		logging.String(logging.FieldEventType, "cycle_complete"),
	)
	return report, nil
}

func (w *Watcher) processOne(ctx context.Context, path string, fp contentid.Fingerprint, report *CycleReport) {
	logger := w.logger.With(
		logging.String("source_file", path),
		logging.String("size", humanize.Bytes(uint64(fp.Size))),
	)
	outcome, err := w.processor.Process(ctx, path, false)
	if err != nil {
		report.Failed++
		var transformErr *pipeline.TransformError
		hint := "check ledger and notebook directory access"
		if errors.As(err, &transformErr) {
			hint = "fix the transcription engine, then run quill process on the file"
		}
		logging.ErrorWithContext(logger, "recording failed", "recording_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
		)
		return
	}

	switch {
	case outcome.Skipped():
		report.Skipped++
		logger.Debug("recording skipped", logging.String("reason", string(outcome.SkipReason)))
		if outcome.SkipReason == pipeline.SkipAlreadyProcessed {
			w.snapshot[path] = fp
		}
	default:
		report.Processed++
		w.snapshot[path] = fp
		logger.Info("recording ingested",
			logging.String("content_id", contentid.Short(outcome.ContentID)),
			logging.String("notebook", outcome.Destination),
			logging.String("annotation_status", string(outcome.AnnotationStatus)),
		)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
