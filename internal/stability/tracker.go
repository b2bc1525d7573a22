// Package stability decides when a file that may still be growing is safe to
// read: its size and mtime must hold still for a quiet period spanning at
// least two observations.
package stability

import (
	"os"
	"sync"
	"time"

	"quill/internal/contentid"
)

type observation struct {
	fp          contentid.Fingerprint
	firstSeenAt time.Time
	sightings   int
	reported    bool
}

// Tracker remembers what each candidate looked like on earlier scans. It is
// purely in-memory; a restart simply re-arms every timer.
type Tracker struct {
	mu     sync.Mutex
	stable time.Duration
	now    func() time.Time
	seen   map[string]*observation
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New returns a tracker requiring stable of unchanged size and mtime.
func New(stable time.Duration, opts ...Option) *Tracker {
	if stable < 0 {
		stable = 0
	}
	t := &Tracker{
		stable: stable,
		now:    time.Now,
		seen:   make(map[string]*observation),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe stats every candidate and returns those that just became stable.
// Paths that cannot be stat'ed are treated as gone.
func (t *Tracker) Observe(candidates []string) []string {
	current := make(map[string]contentid.Fingerprint, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if _, dup := current[path]; !dup {
			order = append(order, path)
		}
		current[path] = contentid.FromInfo(info)
	}
	return t.observe(order, current)
}

// ObserveFingerprints is Observe for callers that already stat'ed the
// listing. The returned paths keep the order of paths.
func (t *Tracker) ObserveFingerprints(paths []string, fingerprints map[string]contentid.Fingerprint) []string {
	return t.observe(paths, fingerprints)
}

func (t *Tracker) observe(order []string, current map[string]contentid.Fingerprint) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for path := range t.seen {
		if _, ok := current[path]; !ok {
			delete(t.seen, path)
		}
	}

	var ready []string
	for _, path := range order {
		fp, ok := current[path]
		if !ok {
			continue
		}
		obs, known := t.seen[path]
		if !known || !obs.fp.Equal(fp) {
			t.seen[path] = &observation{fp: fp, firstSeenAt: now, sightings: 1}
			continue
		}
		obs.sightings++
		if obs.reported {
			continue
		}
		if obs.sightings >= 2 && now.Sub(obs.firstSeenAt) >= t.stable {
			obs.reported = true
			ready = append(ready, path)
		}
	}
	return ready
}

// Forget drops path so its next sighting starts a fresh timer.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, path)
}

// Tracked returns how many paths currently have an observation.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
