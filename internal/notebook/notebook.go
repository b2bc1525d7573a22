package notebook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"quill/internal/fileutil"
)

// Section kinds as they appear in headings.
const (
	KindVoiceDump  = "Voice Dump"
	KindCommentary = "AI Commentary"
)

const (
	sectionSeparator = "\n---\n\n"
	dumpTimeLayout   = "2006-01-02 15:04"
	// DayLayout formats commentary headings and referee prompts.
	DayLayout = "2006-01-02"
)

var (
	sectionPattern    = regexp.MustCompile(`(?m)^## (Voice Dump|AI Commentary) — .*$`)
	markerPattern     = regexp.MustCompile(`<!-- quill:sha256=([0-9a-f]+) -->`)
	pathSeparators    = regexp.MustCompile(`[\\/]+`)
	reservedChars     = regexp.MustCompile(`[:*?"<>|]`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
	trailingBlanks    = regexp.MustCompile(`[ \t]+\n`)
	excessiveNewlines = regexp.MustCompile(`\n{3,}`)
)

// SanitizeTopic turns a routed label into something safe to use as a file
// name and heading. Empty results fall back to fallback.
func SanitizeTopic(topic, fallback string) string {
	topic = strings.TrimSpace(topic)
	topic = pathSeparators.ReplaceAllString(topic, "-")
	topic = reservedChars.ReplaceAllString(topic, "")
	topic = strings.TrimSpace(whitespaceRun.ReplaceAllString(topic, " "))
	if topic == "" {
		return fallback
	}
	return topic
}

// PathFor returns the notebook file for a sanitized title inside dir.
func PathFor(dir, title string) string {
	return filepath.Join(dir, title+".md")
}

// Ensure creates the notebook with a title header when it does not exist yet.
// It reports whether the file was created.
func Ensure(path, title string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat notebook: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create notebook dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create notebook: %w", err)
	}
	if _, err := f.WriteString("# " + title + "\n\n"); err != nil {
		f.Close()
		return false, fmt.Errorf("write notebook header: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return false, fmt.Errorf("sync notebook: %w", err)
	}
	return true, f.Close()
}

// Marker is the HTML comment embedded in a voice dump for contentID.
func Marker(contentID string) string {
	return "<!-- quill:sha256=" + contentID + " -->"
}

// MarkerID returns the content id embedded in a voice dump section.
func MarkerID(section string) (string, bool) {
	m := markerPattern.FindStringSubmatch(section)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ContainsMarker reports whether the notebook at path already holds the
// voice dump for contentID. A missing notebook holds nothing.
func ContainsMarker(path, contentID string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read notebook: %w", err)
	}
	return strings.Contains(string(data), Marker(contentID)), nil
}

// VoiceDump describes one transcript section.
type VoiceDump struct {
	DumpedAt    time.Time
	SourceAudio string
	Mode        string
	Transcript  string
	ContentID   string
}

// FormatVoiceDump renders a voice dump section, without separator.
func FormatVoiceDump(d VoiceDump) string {
	lines := []string{
		"## " + KindVoiceDump + " — " + d.DumpedAt.Format(dumpTimeLayout),
		"**Source audio:** " + d.SourceAudio,
		"**Mode:** " + d.Mode,
	}
	if d.ContentID != "" {
		lines = append(lines, Marker(d.ContentID))
	}
	lines = append(lines, "", CleanTranscript(d.Transcript), "")
	return strings.Join(lines, "\n")
}

// CommentaryHeading is the heading line for a commentary written on day.
func CommentaryHeading(day time.Time) string {
	return "## " + KindCommentary + " — " + day.Format(DayLayout)
}

// EnsureCommentaryHeading prefixes text with a dated commentary heading
// unless the referee already wrote one.
func EnsureCommentaryHeading(text string, day time.Time) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "## "+KindCommentary+" —") {
		return text
	}
	return CommentaryHeading(day) + "\n\n" + text
}

// CleanTranscript normalizes line endings and blank runs.
func CleanTranscript(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingBlanks.ReplaceAllString(text, "\n")
	text = excessiveNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Append writes block at the end of the notebook. The file's last line is
// terminated first if needed, and a horizontal rule precedes the block only
// when the notebook already holds at least one section.
func Append(path, block string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read notebook: %w", err)
	}

	var b strings.Builder
	if len(existing) > 0 {
		if existing[len(existing)-1] != '\n' {
			b.WriteByte('\n')
		}
		if sectionPattern.Match(existing) {
			b.WriteString(sectionSeparator)
		}
	}
	b.WriteString(strings.TrimRight(block, "\n"))
	b.WriteByte('\n')

	if err := fileutil.AppendFile(path, []byte(b.String())); err != nil {
		return fmt.Errorf("append notebook: %w", err)
	}
	return nil
}
