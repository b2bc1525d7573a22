package stability_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"quill/internal/stability"
	"quill/internal/testsupport"
)

func newTracker(t *testing.T, stable time.Duration) (*stability.Tracker, *testsupport.Clock) {
	t.Helper()
	clock := testsupport.NewClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return stability.New(stable, stability.WithClock(clock.Now)), clock
}

func TestObserveRequiresQuietPeriodAcrossTwoCalls(t *testing.T) {
	tracker, clock := newTracker(t, 10*time.Second)
	path := filepath.Join(t.TempDir(), "memo.m4a")
	testsupport.WriteFile(t, path, 128)

	if ready := tracker.Observe([]string{path}); len(ready) != 0 {
		t.Fatalf("first sighting must not be ready: %v", ready)
	}
	clock.Advance(5 * time.Second)
	if ready := tracker.Observe([]string{path}); len(ready) != 0 {
		t.Fatalf("ready before quiet period elapsed: %v", ready)
	}
	clock.Advance(5 * time.Second)
	ready := tracker.Observe([]string{path})
	if !slices.Equal(ready, []string{path}) {
		t.Fatalf("expected path ready after 10s, got %v", ready)
	}
}

func TestObserveRestartsTimerOnGrowth(t *testing.T) {
	tracker, clock := newTracker(t, 10*time.Second)
	path := filepath.Join(t.TempDir(), "memo.m4a")
	testsupport.WriteFile(t, path, 64)

	tracker.Observe([]string{path})
	clock.Advance(11 * time.Second)
	testsupport.WriteFile(t, path, 96)
	if ready := tracker.Observe([]string{path}); len(ready) != 0 {
		t.Fatalf("file that grew between calls must not be ready: %v", ready)
	}
	clock.Advance(9 * time.Second)
	if ready := tracker.Observe([]string{path}); len(ready) != 0 {
		t.Fatalf("timer should have restarted at growth: %v", ready)
	}
	clock.Advance(time.Second)
	if ready := tracker.Observe([]string{path}); len(ready) != 1 {
		t.Fatalf("expected ready 10s after growth stopped, got %v", ready)
	}
}

func TestObserveReportsReadyOnceUntilForget(t *testing.T) {
	tracker, clock := newTracker(t, 0)
	path := filepath.Join(t.TempDir(), "memo.wav")
	testsupport.WriteFile(t, path, 10)

	tracker.Observe([]string{path})
	clock.Advance(time.Second)
	if ready := tracker.Observe([]string{path}); len(ready) != 1 {
		t.Fatalf("expected ready, got %v", ready)
	}
	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		if ready := tracker.Observe([]string{path}); len(ready) != 0 {
			t.Fatalf("stable file must not be re-reported, got %v", ready)
		}
	}

	tracker.Forget(path)
	if ready := tracker.Observe([]string{path}); len(ready) != 0 {
		t.Fatalf("forgotten path starts a fresh timer, got %v", ready)
	}
	clock.Advance(time.Second)
	if ready := tracker.Observe([]string{path}); len(ready) != 1 {
		t.Fatalf("expected ready again after fresh window, got %v", ready)
	}
}

func TestObserveDropsVanishedPaths(t *testing.T) {
	tracker, clock := newTracker(t, time.Second)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.m4a")
	b := filepath.Join(dir, "b.m4a")
	testsupport.WriteFile(t, a, 1)
	testsupport.WriteFile(t, b, 1)

	tracker.Observe([]string{a, b})
	if tracker.Tracked() != 2 {
		t.Fatalf("expected 2 tracked, got %d", tracker.Tracked())
	}
	if err := os.Remove(b); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Second)
	ready := tracker.Observe([]string{a, b})
	if !slices.Equal(ready, []string{a}) {
		t.Fatalf("expected only a ready, got %v", ready)
	}
	if tracker.Tracked() != 1 {
		t.Fatalf("vanished path should be dropped, tracked=%d", tracker.Tracked())
	}

	// b reappears: it must wait a full window again.
	testsupport.WriteFile(t, b, 1)
	tracker.Observe([]string{a, b})
	if ready := tracker.Observe([]string{a, b}); len(ready) != 0 {
		t.Fatalf("reappeared path should not be ready without quiet period, got %v", ready)
	}
}

func TestObserveDropsPathsMissingFromListing(t *testing.T) {
	tracker, clock := newTracker(t, 0)
	path := filepath.Join(t.TempDir(), "a.m4a")
	testsupport.WriteFile(t, path, 1)

	tracker.Observe([]string{path})
	clock.Advance(time.Second)
	tracker.Observe(nil)
	if ready := tracker.Observe([]string{path}); len(ready) != 0 {
		t.Fatalf("path absent from a listing restarts its timer, got %v", ready)
	}
}
