// Package segment splits plain text into units and separators at a chosen
// granularity. Concatenating the segments of any split reproduces the input
// exactly, so a transformed sequence of units can always be put back into the
// original layout.
package segment

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Granularity selects what counts as a unit.
type Granularity int

const (
	Letter Granularity = iota
	Word
	Sentence
)

func (g Granularity) String() string {
	switch g {
	case Letter:
		return "letter"
	case Word:
		return "word"
	case Sentence:
		return "sentence"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Segment is a span of source text. Unit spans may be reordered; separator
// spans must be kept verbatim.
type Segment struct {
	Text string
	Unit bool
}

// Split breaks text into segments for g. Empty spans are never emitted.
func Split(text string, g Granularity) []Segment {
	switch g {
	case Letter:
		return splitLetters(text)
	case Word:
		return splitWords(text)
	case Sentence:
		return splitSentences(text)
	default:
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}
}

// Join concatenates segment texts in order.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Units returns the unit texts in order of appearance.
func Units(segs []Segment) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Unit {
			out = append(out, s.Text)
		}
	}
	return out
}

// isASCIILetter matches [a-zA-Z]; other scripts are treated as separators.
func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func hasASCIILetter(s string) bool {
	for _, r := range s {
		if isASCIILetter(r) {
			return true
		}
	}
	return false
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func splitLetters(text string) []Segment {
	out := make([]Segment, 0, len(text))
	for i, r := range text {
		size := utf8.RuneLen(r)
		if size < 0 {
			// invalid byte sequences decode as RuneError of width 1
			size = 1
		}
		out = append(out, Segment{Text: text[i : i+size], Unit: isASCIILetter(r)})
	}
	return out
}

// splitWords alternates whitespace runs and non-whitespace tokens. A token is
// a unit only when it carries at least one letter, so "--" stays in place.
func splitWords(text string) []Segment {
	var out []Segment
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			out = appendWordSpan(out, text[start:i], inSpace)
			start = i
			inSpace = space
		}
	}
	if start < len(text) {
		out = appendWordSpan(out, text[start:], inSpace)
	}
	return out
}

func appendWordSpan(out []Segment, span string, space bool) []Segment {
	if space {
		return append(out, Segment{Text: span})
	}
	return append(out, Segment{Text: span, Unit: hasASCIILetter(span)})
}

// splitSentences cuts after every run of terminal punctuation together with
// the whitespace that follows it. The cut run is a separator; the text between
// cuts is a unit when it holds anything besides whitespace.
func splitSentences(text string) []Segment {
	var out []Segment
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTerminal(r) {
			i += size
			continue
		}
		if start < i {
			out = appendSentenceSpan(out, text[start:i])
		}
		j := i
		for j < len(text) {
			r2, s2 := utf8.DecodeRuneInString(text[j:])
			if !isTerminal(r2) {
				break
			}
			j += s2
		}
		for j < len(text) {
			r2, s2 := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r2) {
				break
			}
			j += s2
		}
		out = append(out, Segment{Text: text[i:j]})
		start = j
		i = j
	}
	if start < len(text) {
		out = appendSentenceSpan(out, text[start:])
	}
	return out
}

func appendSentenceSpan(out []Segment, span string) []Segment {
	return append(out, Segment{Text: span, Unit: strings.TrimSpace(span) != ""})
}
