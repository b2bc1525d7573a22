package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quill/internal/annotate"
	"quill/internal/ledger"
	"quill/internal/notebook"
	"quill/internal/pipeline"
	"quill/internal/services"
	"quill/internal/testsupport"
)

func TestRerunAnnotationReplacesPlaceholder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAnnotation("codex", "exec"), testsupport.WithArchiveDisabled())
	store := testsupport.MustOpenLedger(t, cfg)
	source := writeMemo(t, cfg, "memo 2026-01-05 - Garden.m4a", "garden")

	failing := &fakeAnnotator{err: services.Wrap(services.ErrExternalTool, "annotate", "codex", "exit 1", nil)}
	first := newOrchestrator(cfg, store, &fakeTranscriber{text: "plant tomatoes"}, withFakeReferee(cfg, failing))
	outcome, err := first.Process(context.Background(), source, false)
	if err != nil || outcome.AnnotationStatus != ledger.AnnotationUnavailable {
		t.Fatalf("Process = %+v %v", outcome, err)
	}

	working := &fakeAnnotator{text: "Check the frost dates."}
	second := newOrchestrator(cfg, store, &fakeTranscriber{}, withFakeReferee(cfg, working))
	rerun, err := second.RerunAnnotation(context.Background(), outcome.Destination, false)
	if err != nil {
		t.Fatalf("RerunAnnotation: %v", err)
	}
	if !rerun.Appended || rerun.ContentID != outcome.ContentID {
		t.Fatalf("rerun = %+v", rerun)
	}
	if len(working.prompts) != 1 || !strings.Contains(working.prompts[0], "plant tomatoes") {
		t.Fatalf("prompt = %v", working.prompts)
	}

	latest, err := notebook.LatestSections(outcome.Destination)
	if err != nil {
		t.Fatalf("LatestSections: %v", err)
	}
	if annotate.IsPlaceholder(latest.Commentary) || !strings.Contains(latest.Commentary, "Check the frost dates.") {
		t.Fatalf("latest commentary = %q", latest.Commentary)
	}

	entry, err := store.Lookup(context.Background(), outcome.ContentID)
	if err != nil || entry == nil {
		t.Fatalf("Lookup: %v %v", entry, err)
	}
	if entry.AnnotationStatus != ledger.AnnotationOK {
		t.Fatalf("annotation status = %s", entry.AnnotationStatus)
	}
	if entry.DestinationRef != outcome.Destination {
		t.Fatalf("destination ref lost: %q", entry.DestinationRef)
	}

	again, err := second.RerunAnnotation(context.Background(), outcome.Destination, false)
	if err != nil {
		t.Fatalf("second RerunAnnotation: %v", err)
	}
	if again.Appended || again.Reason == "" {
		t.Fatalf("second rerun = %+v", again)
	}

	forced, err := second.RerunAnnotation(context.Background(), outcome.Destination, true)
	if err != nil || !forced.Appended {
		t.Fatalf("forced rerun = %+v %v", forced, err)
	}
}

func TestRerunAnnotationFailureAppendsNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAnnotation("codex", "exec"), testsupport.WithArchiveDisabled())
	store := testsupport.MustOpenLedger(t, cfg)
	path := notebook.PathFor(cfg.Paths.NotebooksDir, "Garden")
	if _, err := notebook.Ensure(path, "Garden"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := notebook.Append(path, notebook.FormatVoiceDump(notebook.VoiceDump{
		DumpedAt:   dumpTime,
		Mode:       "brainstorming",
		Transcript: "plant tomatoes",
	})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	before := testsupport.ReadFile(t, path)

	failing := &fakeAnnotator{err: services.Wrap(services.ErrTimeout, "annotate", "codex", "timed out", nil)}
	orch := newOrchestrator(cfg, store, &fakeTranscriber{}, withFakeReferee(cfg, failing))
	_, err := orch.RerunAnnotation(context.Background(), path, false)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if after := testsupport.ReadFile(t, path); after != before {
		t.Fatalf("notebook changed on failure:\n%s", after)
	}
}

func TestRerunAnnotationRequiresVoiceDump(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAnnotation("codex", "exec"))
	store := testsupport.MustOpenLedger(t, cfg)
	path := notebook.PathFor(cfg.Paths.NotebooksDir, "Empty")
	if _, err := notebook.Ensure(path, "Empty"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	orch := newOrchestrator(cfg, store, &fakeTranscriber{}, withFakeReferee(cfg, &fakeAnnotator{text: "unused"}))
	if _, err := orch.RerunAnnotation(context.Background(), path, false); !errors.Is(err, pipeline.ErrNoVoiceDump) {
		t.Fatalf("expected ErrNoVoiceDump, got %v", err)
	}
}

func TestRerunAnnotationDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	orch := newOrchestrator(cfg, store, &fakeTranscriber{})
	if _, err := orch.RerunAnnotation(context.Background(), "missing.md", false); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
