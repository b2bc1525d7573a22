package notebook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// Section is one "## Voice Dump" or "## AI Commentary" block, heading
// included, trimmed of surrounding whitespace.
type Section struct {
	Kind string
	Body string
}

// ParseSections splits notebook text into its sections. Text before the
// first section (the title header) is ignored.
func ParseSections(text string) []Section {
	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)
	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[0]:end])
		body = strings.TrimSpace(strings.TrimSuffix(body, "---"))
		sections = append(sections, Section{Kind: text[m[2]:m[3]], Body: body})
	}
	return sections
}

// ReadSections parses the notebook at path. A missing file has no sections.
func ReadSections(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read notebook: %w", err)
	}
	return ParseSections(string(data)), nil
}

// Latest summarizes the tail of a notebook.
type Latest struct {
	VoiceDump  string
	Commentary string
	// LastKind is the kind of the final section, empty for an empty notebook.
	LastKind string
}

// LatestSections returns the most recent voice dump and commentary.
func LatestSections(path string) (Latest, error) {
	sections, err := ReadSections(path)
	if err != nil || len(sections) == 0 {
		return Latest{}, err
	}
	var latest Latest
	latest.LastKind = sections[len(sections)-1].Kind
	for i := len(sections) - 1; i >= 0; i-- {
		s := sections[i]
		switch {
		case s.Kind == KindVoiceDump && latest.VoiceDump == "":
			latest.VoiceDump = s.Body
		case s.Kind == KindCommentary && latest.Commentary == "":
			latest.Commentary = s.Body
		}
		if latest.VoiceDump != "" && latest.Commentary != "" {
			break
		}
	}
	return latest, nil
}

// ContextBudget bounds how much of a notebook is handed to the referee.
type ContextBudget struct {
	VoiceDumps   int
	Commentaries int
	MaxChars     int
	// SkipLatestVoiceDump leaves out the newest voice dump, which the prompt
	// carries separately.
	SkipLatestVoiceDump bool
}

// ExtractContext walks sections newest first and keeps those within budget,
// returned oldest first joined by horizontal rules. The newest eligible
// section is always kept even when it alone exceeds MaxChars.
func ExtractContext(path string, budget ContextBudget) (string, error) {
	sections, err := ReadSections(path)
	if err != nil {
		return "", err
	}
	return selectContext(sections, budget), nil
}

func selectContext(sections []Section, budget ContextBudget) string {
	const joiner = "\n\n---\n\n"

	remainingDumps := budget.VoiceDumps
	remainingComments := budget.Commentaries
	skippedLatest := false
	total := 0
	var picked []string

	for i := len(sections) - 1; i >= 0; i-- {
		s := sections[i]
		if s.Kind == KindVoiceDump && budget.SkipLatestVoiceDump && !skippedLatest {
			skippedLatest = true
			continue
		}
		if s.Kind == KindVoiceDump && remainingDumps <= 0 {
			continue
		}
		if s.Kind == KindCommentary && remainingComments <= 0 {
			continue
		}

		size := utf8.RuneCountInString(s.Body)
		if len(picked) > 0 {
			size += len(joiner)
			if total+size > budget.MaxChars {
				break
			}
		}
		picked = append(picked, s.Body)
		total += size

		if s.Kind == KindVoiceDump {
			remainingDumps--
		} else {
			remainingComments--
		}
		if remainingDumps <= 0 && remainingComments <= 0 {
			break
		}
	}

	for l, r := 0, len(picked)-1; l < r; l, r = l+1, r-1 {
		picked[l], picked[r] = picked[r], picked[l]
	}
	return strings.TrimSpace(strings.Join(picked, joiner))
}
