package whisperx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ParagraphPause is the silence between segments, in seconds, that starts a
// new paragraph.
const ParagraphPause = 2.0

// Segment is one sentence from WhisperX's JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// LoadSegments reads the segments array from a WhisperX JSON file.
func LoadSegments(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// JoinSegments joins segment text with spaces and breaks paragraphs where
// the speaker paused for at least ParagraphPause. Blank segments are dropped.
func JoinSegments(segments []Segment) string {
	var paragraphs []string
	var current []string
	lastEnd := -1.0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if len(current) > 0 && lastEnd >= 0 && seg.Start-lastEnd >= ParagraphPause {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
		current = append(current, text)
		lastEnd = seg.End
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}
