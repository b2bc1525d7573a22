package router

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quill/internal/config"
	"quill/internal/textutil"
)

// Topic sources reported in a Decision.
const (
	SourceFilename   = "filename"
	SourceTranscript = "transcript"
	SourceInferred   = "inferred"
	SourceFallback   = "fallback"
)

// Modes label the epistemic stance of a voice dump.
const (
	ModePrepForSharing = "prep for sharing"
	ModeClaims         = "claims"
	ModeModelForming   = "model-forming"
	ModeBrainstorming  = "brainstorming"
)

// Decision is the routing result for one transcript.
type Decision struct {
	Topic       string
	Mode        string
	TopicSource string
}

// Classifier maps a transcript and the recording's file name to a notebook
// topic and a mode.
type Classifier interface {
	Classify(transcript, filename string, dumpedAt time.Time) Decision
}

var (
	explicitTopicPattern = regexp.MustCompile(`(?im)^\s*TOPIC\s*:\s*(.+?)\s*$`)
	metaLinePattern      = regexp.MustCompile(`(?i)^\s*(topic|mode)\s*:\s*.+$`)
	datePattern          = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	thisIsAboutPattern   = regexp.MustCompile(`(?i)\b(?:this\s+is\s+about|the\s+topic\s+is)\s+(.{3,80}?)(?:[.\n\r!?]|$)`)
	aboutPhrasePattern   = regexp.MustCompile(`(?i)\b(?:talk(?:ing)?|think(?:ing)?|reflect(?:ing)?|focus(?:ing)?|rant(?:ing)?)\s+about\s+(.{3,80}?)(?:[.\n\r!?]|$)`)

	prepForSharingPattern = regexp.MustCompile(`\b(?:write this up|for sharing|publish|blog|newsletter|presentation)\b`)
	claimsPattern         = regexp.MustCompile(`\b(?:this proves|obviously|therefore|thus|must be|causes|leads to|results in|the real reason is)\b`)
	modelFormingPattern   = regexp.MustCompile(`\b(?:model|framework|assumptions?|mechanism|variables?|equations?|(?:let's|lets)\s+define|operationali[sz]e)\b`)
)

const (
	defaultMaxWords = 6
	defaultMaxChars = 80
)

var acronyms = map[string]struct{}{"ai": {}, "ml": {}, "uk": {}, "us": {}}

// Heuristic is the default rule-based Classifier.
type Heuristic struct {
	maxWords int
	maxChars int
	title    cases.Caser
}

// NewHeuristic builds a classifier bounded by the routing limits.
func NewHeuristic(cfg config.Routing) *Heuristic {
	h := &Heuristic{
		maxWords: cfg.InferTopicMaxWords,
		maxChars: cfg.InferTopicMaxChars,
		title:    cases.Title(language.English),
	}
	if h.maxWords <= 0 {
		h.maxWords = defaultMaxWords
	}
	if h.maxChars <= 0 {
		h.maxChars = defaultMaxChars
	}
	return h
}

// Classify implements Classifier.
func (h *Heuristic) Classify(transcript, filename string, dumpedAt time.Time) Decision {
	decision := Decision{Mode: InferMode(transcript)}
	if topic := FilenameTopic(filename); topic != "" {
		decision.Topic = topic
		decision.TopicSource = SourceFilename
		return decision
	}
	if topic := ExplicitTopic(transcript); topic != "" {
		decision.Topic = topic
		decision.TopicSource = SourceTranscript
		return decision
	}
	if topic := h.inferTopic(transcript); topic != "" {
		decision.Topic = topic
		decision.TopicSource = SourceInferred
		return decision
	}
	decision.Topic = fallbackTopic(dumpedAt)
	decision.TopicSource = SourceFallback
	return decision
}

// FilenameTopic returns whatever follows the first YYYY-MM-DD in the file's
// base name, stripped of leading punctuation. Empty when there is no date.
func FilenameTopic(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	loc := datePattern.FindStringIndex(stem)
	if loc == nil {
		return ""
	}
	topic := strings.TrimSpace(stem[loc[1]:])
	return strings.TrimSpace(strings.TrimLeft(topic, " _-–—:"))
}

// ExplicitTopic returns the value of a "TOPIC: ..." line, if any.
func ExplicitTopic(transcript string) string {
	m := explicitTopicPattern.FindStringSubmatch(transcript)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// InferMode picks the first matching mode in priority order, defaulting to
// brainstorming. TOPIC and MODE lines are ignored.
func InferMode(transcript string) string {
	text := strings.ToLower(stripMetaLines(transcript))
	switch {
	case prepForSharingPattern.MatchString(text):
		return ModePrepForSharing
	case claimsPattern.MatchString(text):
		return ModeClaims
	case modelFormingPattern.MatchString(text):
		return ModeModelForming
	default:
		return ModeBrainstorming
	}
}

func (h *Heuristic) inferTopic(transcript string) string {
	cleaned := stripMetaLines(transcript)
	for _, pattern := range []*regexp.Regexp{thisIsAboutPattern, aboutPhrasePattern} {
		if m := pattern.FindStringSubmatch(cleaned); m != nil {
			if phrase := textutil.CollapseSpace(m[1]); phrase != "" {
				return textutil.Truncate(phrase, h.maxChars)
			}
		}
	}

	keywords := textutil.RankKeywords(cleaned, stopwords, h.maxWords)
	if len(keywords) == 0 {
		return ""
	}
	titled := make([]string, 0, len(keywords))
	for _, w := range keywords {
		titled = append(titled, h.titleWord(w))
	}
	return textutil.Truncate(strings.Join(titled, " "), h.maxChars)
}

func (h *Heuristic) titleWord(word string) string {
	if _, ok := acronyms[word]; ok {
		return strings.ToUpper(word)
	}
	return h.title.String(word)
}

func stripMetaLines(transcript string) string {
	lines := strings.Split(transcript, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if metaLinePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func fallbackTopic(dumpedAt time.Time) string {
	if dumpedAt.IsZero() {
		return "Voice Note"
	}
	return "Voice Note " + dumpedAt.Format("2006-01-02 15:04")
}

var _ Classifier = (*Heuristic)(nil)
