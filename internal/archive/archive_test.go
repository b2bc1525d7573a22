package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quill/internal/contentid"
	"quill/internal/testsupport"
)

var dumpedAt = time.Date(2026, 7, 9, 14, 30, 0, 0, time.Local)

func TestDirUsesStrftime(t *testing.T) {
	a := New("/archive", "%Y/%m")
	if got := a.Dir(dumpedAt); got != filepath.Join("/archive", "2026", "07") {
		t.Fatalf("Dir = %q", got)
	}
	if got := New("/archive", "").Dir(dumpedAt); got != "/archive" {
		t.Fatalf("empty format Dir = %q", got)
	}
}

func TestCopyKeepsOriginalUntilFinalize(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "inbox", "memo.m4a")
	testsupport.WriteRecording(t, src, "audio bytes", dumpedAt)

	a := New(filepath.Join(base, "archive"), "%Y-%m-%d")
	dest, err := a.Copy(src, dumpedAt, "")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if want := filepath.Join(base, "archive", "2026-07-09", "memo.m4a"); dest != want {
		t.Fatalf("dest = %q, want %q", dest, want)
	}
	if got := testsupport.ReadFile(t, dest); got != "audio bytes" {
		t.Fatalf("archived content %q", got)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("original must stay until Finalize: %v", err)
	}

	if err := a.Finalize(src); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("original should be removed, stat err=%v", err)
	}
	if err := a.Finalize(src); err != nil {
		t.Fatalf("Finalize on a missing original: %v", err)
	}
}

func TestCopyFailsWhenArchiveRootIsAFile(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "inbox", "memo.m4a")
	testsupport.WriteRecording(t, src, "audio bytes", dumpedAt)
	root := filepath.Join(base, "archive")
	testsupport.WriteRecording(t, root, "not a directory", time.Time{})

	if _, err := New(root, "%Y").Copy(src, dumpedAt, ""); err == nil {
		t.Fatal("expected copy into a file-backed archive root to fail")
	}
	if got := testsupport.ReadFile(t, src); got != "audio bytes" {
		t.Fatalf("original must be untouched, got %q", got)
	}
}

func TestPlanResolvesCollisions(t *testing.T) {
	base := t.TempDir()
	a := New(base, "")
	testsupport.WriteRecording(t, filepath.Join(base, "memo.m4a"), "one", time.Time{})
	testsupport.WriteRecording(t, filepath.Join(base, "memo__1.m4a"), "two", time.Time{})

	dest, exists, err := a.Plan("/inbox/memo.m4a", dumpedAt, "")
	if err != nil || exists {
		t.Fatalf("Plan: %v exists=%v", err, exists)
	}
	if dest != filepath.Join(base, "memo__2.m4a") {
		t.Fatalf("dest = %q", dest)
	}
}

func TestCopyReusesIdenticalArchivedCopy(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "inbox", "memo.m4a")
	testsupport.WriteRecording(t, src, "same bytes", dumpedAt)
	id, err := contentid.HashFile(src)
	if err != nil {
		t.Fatal(err)
	}
	a := New(filepath.Join(base, "archive"), "")
	testsupport.WriteRecording(t, filepath.Join(base, "archive", "memo.m4a"), "other bytes", time.Time{})
	testsupport.WriteRecording(t, filepath.Join(base, "archive", "memo__1.m4a"), "same bytes", time.Time{})

	dest, err := a.Copy(src, dumpedAt, id)
	if err != nil {
		t.Fatal(err)
	}
	if dest != filepath.Join(base, "archive", "memo__1.m4a") {
		t.Fatalf("expected reuse of identical copy, got %q", dest)
	}
	if _, err := os.Stat(filepath.Join(base, "archive", "memo__2.m4a")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("no second copy should be written")
	}
}
