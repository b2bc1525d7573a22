// Package archive moves processed recordings out of the inbox into a dated
// directory tree in two steps: Copy, then Finalize once the notebook holds
// the content.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"quill/internal/contentid"
	"quill/internal/fileutil"
)

// maxSuffix bounds the __N collision suffixes tried for one name.
const maxSuffix = 999

// ErrNoFreeName reports that every collision suffix is taken.
var ErrNoFreeName = errors.New("no free archive name")

// Archiver places originals under root/<strftime(subdirFormat)>/.
type Archiver struct {
	root         string
	subdirFormat string
}

// New returns an archiver rooted at root.
func New(root, subdirFormat string) *Archiver {
	return &Archiver{root: root, subdirFormat: subdirFormat}
}

// Dir returns the archive directory for recordings dumped at when.
func (a *Archiver) Dir(when time.Time) string {
	sub := strings.TrimSpace(a.subdirFormat)
	if sub == "" {
		return a.root
	}
	return filepath.Join(a.root, filepath.FromSlash(strftime.Format(sub, when)))
}

// Plan picks the destination for source. The base name is kept when free,
// otherwise stem__N.ext for the first free N. An existing file that already
// holds contentID is reused so a crash between copy and removal does not
// leave a second archived copy behind.
func (a *Archiver) Plan(source string, when time.Time, contentID string) (string, bool, error) {
	dir := a.Dir(when)
	name := filepath.Base(source)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i <= maxSuffix; i++ {
		candidate := filepath.Join(dir, name)
		if i > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, i, ext))
		}
		info, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("stat archive candidate: %w", err)
		}
		if contentID != "" && info.Mode().IsRegular() {
			if id, err := contentid.HashFile(candidate); err == nil && id == contentID {
				return candidate, true, nil
			}
		}
	}
	return "", false, fmt.Errorf("%w for %s in %s", ErrNoFreeName, name, dir)
}

// Copy places a verified copy of source in the archive and returns its path.
// The original stays in the inbox until Finalize.
func (a *Archiver) Copy(source string, when time.Time, contentID string) (string, error) {
	dest, exists, err := a.Plan(source, when, contentID)
	if err != nil {
		return "", err
	}
	if exists {
		return dest, nil
	}
	if err := fileutil.CopyFileVerified(source, dest); err != nil {
		return "", fmt.Errorf("copy to archive: %w", err)
	}
	return dest, nil
}

// Finalize removes the inbox original once Copy has succeeded. A source that
// is already gone is not an error.
func (a *Archiver) Finalize(source string) error {
	if err := os.Remove(source); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove original: %w", err)
	}
	return nil
}
