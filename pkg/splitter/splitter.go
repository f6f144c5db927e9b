package splitter

import (
	"strings"
	"unicode/utf8"
)

// Pause markers appended after punctuation to shape prosody in the
// downstream vocoder. Stripping both markers from a segment recovers the
// original text.
const (
	ShortPause = " ..."  // after comma, semicolon, colon
	LongPause  = " ....." // after sentence-ending punctuation
)

// Segment is one bounded-length, sentence-aligned unit of speakable text.
// Index is the position in the original order and drives reassembly.
type Segment struct {
	Index int
	Text  string
}

// Split cuts text into segments of at most maxChars characters, preferring
// sentence boundaries, then clause boundaries, then a hard character split
// for a single oversized clause. Pause markers are inserted after
// punctuation in each segment. Split is pure: identical inputs always
// produce identical output.
func Split(text string, maxChars int) []Segment {
	if maxChars <= 0 {
		maxChars = 2000
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var units []string
	for _, sentence := range splitSentences(text) {
		if utf8.RuneCountInString(sentence) <= maxChars {
			units = append(units, sentence)
			continue
		}
		units = append(units, splitClauses(sentence, maxChars)...)
	}

	var segments []Segment
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		segments = append(segments, Segment{
			Index: len(segments),
			Text:  markPauses(current.String()),
		})
		current.Reset()
	}

	for _, unit := range units {
		joined := utf8.RuneCountInString(current.String()) + 1 + utf8.RuneCountInString(unit)
		if current.Len() > 0 && joined > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(unit)
	}
	flush()

	return segments
}

// splitSentences breaks text after sentence-ending punctuation followed by
// whitespace or end of input.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if isSentenceEnd(r) && (i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n') {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// splitClauses breaks an oversized sentence after internal punctuation,
// falling back to a hard rune split when a single clause still exceeds
// maxChars. The hard split is the adversarial-input fallback, not the
// common path.
func splitClauses(sentence string, maxChars int) []string {
	var clauses []string
	var current strings.Builder

	runes := []rune(sentence)
	for i, r := range runes {
		current.WriteRune(r)
		if isClauseEnd(r) && (i+1 == len(runes) || runes[i+1] == ' ') {
			c := strings.TrimSpace(current.String())
			if c != "" {
				clauses = append(clauses, c)
			}
			current.Reset()
		}
	}
	if c := strings.TrimSpace(current.String()); c != "" {
		clauses = append(clauses, c)
	}

	var out []string
	for _, c := range clauses {
		if utf8.RuneCountInString(c) <= maxChars {
			out = append(out, c)
			continue
		}
		cr := []rune(c)
		for start := 0; start < len(cr); start += maxChars {
			end := start + maxChars
			if end > len(cr) {
				end = len(cr)
			}
			out = append(out, strings.TrimSpace(string(cr[start:end])))
		}
	}

	return out
}

// markPauses inserts pause markers after punctuation. Internal punctuation
// gets a short pause, sentence enders a long one.
func markPauses(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	runes := []rune(text)
	for i, r := range runes {
		out.WriteRune(r)
		atEnd := i+1 == len(runes)
		// Mid-word punctuation (decimals, abbreviations) is left alone.
		if !atEnd && runes[i+1] != ' ' && runes[i+1] != '\n' {
			continue
		}
		switch {
		case isSentenceEnd(r):
			out.WriteString(LongPause)
		case isClauseEnd(r):
			out.WriteString(ShortPause)
		}
	}

	return out.String()
}

// StripPauses removes inserted pause markers, recovering the pre-markup
// segment text.
func StripPauses(text string) string {
	text = strings.ReplaceAll(text, LongPause, "")
	return strings.ReplaceAll(text, ShortPause, "")
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClauseEnd(r rune) bool {
	return r == ',' || r == ';' || r == ':'
}
