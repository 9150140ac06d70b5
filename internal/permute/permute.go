// Package permute reorders units and references with an unbiased shuffle and
// puts them back into their original layout.
package permute

import (
	"math/rand/v2"
	"strings"

	"github.com/hyperifyio/webscrambler/internal/extract"
	"github.com/hyperifyio/webscrambler/internal/segment"
)

// Source supplies uniformly distributed integers in [0, n). Tests substitute
// a deterministic implementation.
type Source interface {
	IntN(n int) int
}

type runtimeSource struct{}

func (runtimeSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the runtime's auto-seeded generator and is safe
// for concurrent use.
var DefaultSource Source = runtimeSource{}

// Shuffle returns a uniformly random permutation of items as a new slice
// (Fisher-Yates). items is left untouched. For fewer than two items the copy
// is returned without consulting src.
func Shuffle[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}
	if src == nil {
		src = DefaultSource
	}
	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Reassemble walks segs in order and replaces each unit with the next value
// from units, leaving separators alone. If units runs out the original unit
// text is kept.
func Reassemble(segs []segment.Segment, units []string) string {
	var b strings.Builder
	next := 0
	for _, s := range segs {
		if s.Unit && next < len(units) {
			b.WriteString(units[next])
			next++
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// ScrambleText splits text at g, shuffles the units and reassembles. It
// returns the result and the number of units that took part.
func ScrambleText(src Source, text string, g segment.Granularity) (string, int) {
	segs := segment.Split(text, g)
	units := segment.Units(segs)
	return Reassemble(segs, Shuffle(src, units)), len(units)
}

// ShuffleReferences permutes only the locators of refs. Labels and kinds stay
// at their original positions.
func ShuffleReferences(src Source, refs []extract.Reference) []extract.Reference {
	locators := make([]string, len(refs))
	for i, r := range refs {
		locators[i] = r.Locator
	}
	shuffled := Shuffle(src, locators)
	out := make([]extract.Reference, len(refs))
	for i, r := range refs {
		r.Locator = shuffled[i]
		out[i] = r
	}
	return out
}

// RewriteTree clones doc and assigns locators to the clone's eligible
// elements of kind in document order. doc itself is never modified.
func RewriteTree(doc *extract.Document, kind extract.Kind, locators []string) *extract.Document {
	clone := doc.Clone()
	clone.Assign(kind, locators)
	return clone
}

// ScrambleReferences extracts kind from doc, shuffles the locators and
// returns a rewritten clone of doc alongside the original references.
func ScrambleReferences(src Source, doc *extract.Document, kind extract.Kind) (*extract.Document, []extract.Reference) {
	refs := doc.References(kind)
	shuffled := ShuffleReferences(src, refs)
	locators := make([]string, len(shuffled))
	for i, r := range shuffled {
		locators[i] = r.Locator
	}
	return RewriteTree(doc, kind, locators), refs
}
