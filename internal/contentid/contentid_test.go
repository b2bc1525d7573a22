package contentid_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quill/internal/contentid"
)

func TestHashFileMatchesKnownDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	id, err := contentid.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if id != want {
		t.Fatalf("unexpected digest %s", id)
	}
	if !contentid.Valid(id) {
		t.Fatal("expected digest to be valid")
	}
}

func TestIdentifyIgnoresNameAndLocation(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.m4a")
	b := filepath.Join(dir, "nested", "renamed.m4a")
	if err := os.MkdirAll(filepath.Dir(b), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("same bytes"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	idA, fpA, err := contentid.Identify(a)
	if err != nil {
		t.Fatalf("Identify a: %v", err)
	}
	idB, _, err := contentid.Identify(b)
	if err != nil {
		t.Fatalf("Identify b: %v", err)
	}
	if idA != idB {
		t.Fatalf("expected equal ids, got %s and %s", idA, idB)
	}
	if fpA.Size != int64(len("same bytes")) {
		t.Fatalf("unexpected size %d", fpA.Size)
	}
}

func TestIdentifyMissingFileReportsVanished(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.m4a")
	if _, _, err := contentid.Identify(missing); !errors.Is(err, contentid.ErrVanished) {
		t.Fatalf("expected ErrVanished, got %v", err)
	}
}

func TestFingerprintTracksMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, first, err := contentid.Identify(path)
	if err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	_, second, err := contentid.Identify(path)
	if err != nil {
		t.Fatal(err)
	}
	if first.Equal(second) {
		t.Fatal("expected fingerprint change after mtime update")
	}
	if !second.ModTime().Equal(later) {
		t.Fatalf("unexpected mod time %v", second.ModTime())
	}
}

func TestValidAndShort(t *testing.T) {
	if contentid.Valid(strings.Repeat("G", 64)) {
		t.Fatal("non-hex must be invalid")
	}
	if contentid.Valid("abc") {
		t.Fatal("short id must be invalid")
	}
	if got := contentid.Short(strings.Repeat("a", 64)); len(got) != 12 {
		t.Fatalf("unexpected short id %q", got)
	}
}
