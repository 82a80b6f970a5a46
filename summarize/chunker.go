// Package summarize keeps a rolling summary of the session transcript. A
// chunker splits the transcript into sentence-aligned segments, a
// debounced scheduler decides when a new summary is worth requesting, and
// an HTTP client talks to the summarization backend.
package summarize

import "strings"

// Chunking defaults.
const (
	DefaultMaxSegmentChars = 320
	DefaultMaxSegments     = 40
)

// Chunk splits text into sentence-aligned segments of at most maxChars
// characters, keeping only the trailing maxSegments segments. Sentences
// longer than maxChars are hard-split. Whitespace-only input yields no
// segments.
func Chunk(text string, maxChars, maxSegments int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxSegmentChars
	}
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var segments []string
	var cur []rune
	for _, sentence := range splitSentences(text) {
		runes := []rune(sentence)
		if len(cur) > 0 && len(cur)+len(runes) > maxChars {
			segments = append(segments, strings.TrimSpace(string(cur)))
			cur = nil
		}
		for len(runes) > maxChars {
			// A single sentence longer than the budget is split mid-word.
			segments = append(segments, strings.TrimSpace(string(runes[:maxChars])))
			runes = runes[maxChars:]
		}
		cur = append(cur, runes...)
	}
	if s := strings.TrimSpace(string(cur)); s != "" {
		segments = append(segments, s)
	}

	if len(segments) > maxSegments {
		segments = segments[len(segments)-maxSegments:]
	}
	return segments
}

// splitSentences cuts text after each sentence terminator, keeping the
// terminator and any following whitespace with the sentence it ends.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(runes) && (runes[end] == ' ' || runes[end] == '\n' || runes[end] == '\t') {
				end++
			}
			out = append(out, string(runes[start:end]))
			start = end
			i = end - 1
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}
