// Package scramble selects an extraction and permutation strategy for a
// requested scramble type and packages the original and scrambled renderings.
//
// A Scrambler holds no per-call state and may be shared between goroutines.
package scramble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/webscrambler/internal/extract"
	"github.com/hyperifyio/webscrambler/internal/permute"
	"github.com/hyperifyio/webscrambler/internal/segment"
)

// Type names a scrambling method.
type Type string

const (
	Letters   Type = "letters"
	Words     Type = "words"
	Sentences Type = "sentences"
	Links     Type = "links"
	Images    Type = "images"

	// Passthrough returns the canonical extraction on both sides. It is not
	// accepted by ParseType.
	Passthrough Type = "passthrough"
)

// Types lists the methods accepted from callers, in display order.
var Types = []Type{Letters, Words, Sentences, Links, Images}

var (
	// ErrEmptyContent means extraction found nothing the method can work on.
	ErrEmptyContent = errors.New("no content found for the selected scrambling method")
	// ErrUnknownType is returned for a Type outside the known set.
	ErrUnknownType = errors.New("unknown scramble type")
)

// ParseType accepts exactly one of Types.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Result is the only output of a scramble call.
type Result struct {
	OriginalText  string `json:"originalText"`
	ScrambledText string `json:"scrambledText"`
}

// Scrambler applies scramble strategies using Source for randomness.
type Scrambler struct {
	Source permute.Source
}

// New returns a Scrambler drawing from src, or from permute.DefaultSource
// when src is nil.
func New(src permute.Source) *Scrambler {
	if src == nil {
		src = permute.DefaultSource
	}
	return &Scrambler{Source: src}
}

func (s *Scrambler) source() permute.Source {
	if s == nil || s.Source == nil {
		return permute.DefaultSource
	}
	return s.Source
}

// ScrambleDocument is Scramble for a tree the caller already parsed, so the
// markup is parsed once per request. doc is not modified.
func (s *Scrambler) ScrambleDocument(doc *extract.Document, plainText string, t Type) (Result, error) {
	return s.scramble(doc, plainText, t)
}

// Scramble produces the original and scrambled renderings of the input for
// t. Text methods work on plainText; links and images work on markup.
//
// Text methods return ErrEmptyContent when plainText holds no unit. Links and
// images render an empty-list message on both sides when markup has no
// eligible reference, and return ErrEmptyContent only if plainText is empty
// as well.
func (s *Scrambler) Scramble(markup, plainText string, t Type) (Result, error) {
	return s.scramble(extract.Parse(markup), plainText, t)
}

func (s *Scrambler) scramble(doc *extract.Document, plainText string, t Type) (Result, error) {
	switch t {
	case Letters:
		return s.scrambleText(plainText, segment.Letter)
	case Words:
		return s.scrambleText(plainText, segment.Word)
	case Sentences:
		return s.scrambleText(plainText, segment.Sentence)
	case Links:
		return s.scrambleReferences(doc, plainText, extract.Hyperlink)
	case Images:
		return s.scrambleReferences(doc, plainText, extract.Image)
	case Passthrough:
		if strings.TrimSpace(plainText) == "" {
			return Result{}, ErrEmptyContent
		}
		return Result{OriginalText: plainText, ScrambledText: plainText}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
}

func (s *Scrambler) scrambleText(plainText string, g segment.Granularity) (Result, error) {
	scrambled, units := permute.ScrambleText(s.source(), plainText, g)
	if units == 0 {
		return Result{}, fmt.Errorf("%w: no %s units", ErrEmptyContent, g)
	}
	return Result{OriginalText: plainText, ScrambledText: scrambled}, nil
}

func (s *Scrambler) scrambleReferences(doc *extract.Document, plainText string, kind extract.Kind) (Result, error) {
	rewritten, refs := permute.ScrambleReferences(s.source(), doc, kind)
	if len(refs) == 0 && strings.TrimSpace(plainText) == "" {
		return Result{}, fmt.Errorf("%w: no %s references", ErrEmptyContent, kind)
	}
	return Result{
		OriginalText:  extract.FormatReferences(kind, refs),
		ScrambledText: extract.FormatReferences(kind, rewritten.References(kind)),
	}, nil
}
