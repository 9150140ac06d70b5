package permute

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/hyperifyio/webscrambler/internal/extract"
	"github.com/hyperifyio/webscrambler/internal/segment"
)

// zeroSource always picks index 0.
type zeroSource struct{ calls int }

func (z *zeroSource) IntN(n int) int {
	z.calls++
	return 0
}

// panicSource fails the test if it is consulted at all.
type panicSource struct{ t *testing.T }

func (p panicSource) IntN(int) int {
	p.t.Fatalf("source must not be consulted")
	return 0
}

// sameItems reports whether a and b hold the same multiset.
func sameItems[T cmp.Ordered](a, b []T) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func locators(refs []extract.Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Locator
	}
	return out
}

func labels(refs []extract.Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Label
	}
	return out
}

func TestShuffle_IsPermutation(t *testing.T) {
	src := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 40; n++ {
		items := make([]string, n)
		for i := range items {
			items[i] = strings.Repeat("x", i%4) + string(rune('a'+i%26))
		}
		orig := slices.Clone(items)
		got := Shuffle(src, items)
		if len(got) != n || !sameItems(orig, got) {
			t.Fatalf("n=%d: %q is not a permutation of %q", n, got, orig)
		}
		if !slices.Equal(orig, items) {
			t.Fatalf("n=%d: input slice was modified", n)
		}
	}
}

func TestShuffle_BijectionOverIndices(t *testing.T) {
	src := rand.New(rand.NewPCG(7, 7))
	idx := make([]int, 25)
	for i := range idx {
		idx[i] = i
	}
	seen := make(map[int]bool, len(idx))
	for _, v := range Shuffle(src, idx) {
		if seen[v] {
			t.Fatalf("index %d appears twice", v)
		}
		seen[v] = true
	}
	if len(seen) != len(idx) {
		t.Fatalf("saw %d distinct indices, want %d", len(seen), len(idx))
	}
}

func TestShuffle_SmallInputsAreNoOps(t *testing.T) {
	if got := Shuffle(panicSource{t}, []string{}); len(got) != 0 {
		t.Fatalf("got %q", got)
	}
	if got := Shuffle[string](panicSource{t}, nil); len(got) != 0 {
		t.Fatalf("got %q", got)
	}
	if got := Shuffle(panicSource{t}, []string{"only"}); !slices.Equal(got, []string{"only"}) {
		t.Fatalf("got %q", got)
	}
}

func TestShuffle_DeterministicWithSubstituteSource(t *testing.T) {
	src := &zeroSource{}
	got := Shuffle(src, []string{"a", "b", "c"})
	if !slices.Equal(got, []string{"b", "c", "a"}) || src.calls != 2 {
		t.Fatalf("got %q after %d draws", got, src.calls)
	}
}

func TestShuffle_UniformOverOrderings(t *testing.T) {
	const trials = 60000
	src := rand.New(rand.NewPCG(42, 1337))
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[strings.Join(Shuffle(src, []string{"a", "b", "c"}), "")]++
	}
	if len(counts) != 6 {
		t.Fatalf("every ordering of three items should appear, got %v", counts)
	}
	expected := float64(trials) / 6
	for order, c := range counts {
		dev := (float64(c) - expected) / expected
		if dev > 0.05 || dev < -0.05 {
			t.Fatalf("ordering %s off by %.3f (%d hits)", order, dev, c)
		}
	}
}

func TestShuffle_DefaultSourceWhenNil(t *testing.T) {
	if got := Shuffle(nil, []int{1, 2, 3, 4}); !sameItems(got, []int{1, 2, 3, 4}) {
		t.Fatalf("got %v", got)
	}
}

func TestReassemble_PreservesSeparators(t *testing.T) {
	in := "Hello, world! Bye."
	segs := segment.Split(in, segment.Word)
	if out := Reassemble(segs, []string{"Bye.", "Hello,", "world!"}); out != "Bye. Hello, world!" {
		t.Fatalf("got %q", out)
	}

	for i := 0; i < 50; i++ {
		scrambled, n := ScrambleText(DefaultSource, in, segment.Word)
		if n != 3 || len(scrambled) != len(in) {
			t.Fatalf("n=%d scrambled=%q", n, scrambled)
		}
		if !sameItems(strings.Fields(in), strings.Fields(scrambled)) || strings.Count(scrambled, " ") != 2 {
			t.Fatalf("scrambled %q lost words or spacing", scrambled)
		}
	}
}

func TestReassemble_StandalonePunctuationStays(t *testing.T) {
	in := "alpha - beta , gamma"
	for i := 0; i < 20; i++ {
		out, _ := ScrambleText(DefaultSource, in, segment.Word)
		fields := strings.Fields(out)
		if len(fields) != 5 || fields[1] != "-" || fields[3] != "," {
			t.Fatalf("punctuation moved: %q", out)
		}
	}
}

func TestReassemble_FallbackWhenUnitsRunOut(t *testing.T) {
	segs := segment.Split("one two three", segment.Word)
	if got := Reassemble(segs, []string{"uno"}); got != "uno two three" {
		t.Fatalf("got %q", got)
	}
	if got := Reassemble(segs, nil); got != "one two three" {
		t.Fatalf("got %q", got)
	}
}

func TestScrambleText_LettersKeepFrequencyAndLayout(t *testing.T) {
	in := "Hello, World! 123 éa"
	out, n := ScrambleText(DefaultSource, in, segment.Letter)
	if n != 11 {
		t.Fatalf("units=%d, want 11", n)
	}
	inRunes, outRunes := []rune(in), []rune(out)
	if len(inRunes) != len(outRunes) {
		t.Fatalf("length changed: %q", out)
	}
	var inLetters, outLetters []rune
	for i := range inRunes {
		isLetter := (inRunes[i] >= 'a' && inRunes[i] <= 'z') || (inRunes[i] >= 'A' && inRunes[i] <= 'Z')
		if !isLetter {
			if inRunes[i] != outRunes[i] {
				t.Fatalf("separator at %d moved: %q", i, out)
			}
			continue
		}
		inLetters = append(inLetters, inRunes[i])
		outLetters = append(outLetters, outRunes[i])
	}
	if !sameItems(inLetters, outLetters) {
		t.Fatalf("letter frequency changed: %q", out)
	}
}

func TestScrambleText_Sentences(t *testing.T) {
	in := "First one. Second one! Third one?"
	out, n := ScrambleText(DefaultSource, in, segment.Sentence)
	if n != 3 {
		t.Fatalf("units=%d", n)
	}
	got := segment.Units(segment.Split(out, segment.Sentence))
	if !sameItems(got, []string{"First one", "Second one", "Third one"}) {
		t.Fatalf("got %q", got)
	}
}

func TestShuffleReferences_MovesOnlyLocators(t *testing.T) {
	refs := []extract.Reference{
		{Kind: extract.Hyperlink, Locator: "http://a", Label: "A"},
		{Kind: extract.Hyperlink, Locator: "http://b", Label: "B"},
		{Kind: extract.Hyperlink, Locator: "http://c", Label: "C"},
	}
	got := ShuffleReferences(&zeroSource{}, refs)
	if !slices.Equal(labels(got), []string{"A", "B", "C"}) {
		t.Fatalf("labels moved: %q", labels(got))
	}
	if !slices.Equal(locators(got), []string{"http://b", "http://c", "http://a"}) {
		t.Fatalf("locators=%q", locators(got))
	}
	if refs[0].Locator != "http://a" {
		t.Fatalf("input must not be modified")
	}
}

func TestScrambleReferences_RewritesCloneOnly(t *testing.T) {
	doc := extract.Parse(`<a href="http://a">A</a><a href="/rel">R</a><a href="http://b">B</a><a href="http://c">C</a>`)
	before := doc.Render()
	rewritten, refs := ScrambleReferences(&zeroSource{}, doc, extract.Hyperlink)
	if doc.Render() != before {
		t.Fatalf("source document was modified")
	}
	if len(refs) != 3 {
		t.Fatalf("refs=%d", len(refs))
	}
	got := rewritten.References(extract.Hyperlink)
	if !slices.Equal(locators(got), []string{"http://b", "http://c", "http://a"}) {
		t.Fatalf("locators=%q", locators(got))
	}
	if !slices.Equal(labels(got), []string{"A", "B", "C"}) {
		t.Fatalf("labels=%q", labels(got))
	}
	if !strings.Contains(rewritten.Render(), `href="/rel"`) {
		t.Fatalf("ineligible link was rewritten")
	}
}

func TestRewriteTree_SingleReferenceUnchanged(t *testing.T) {
	doc := extract.Parse(`<a href="http://a.com">X</a><a href="/relative">Y</a><a href="javascript:x">Z</a>`)
	rewritten, refs := ScrambleReferences(panicSource{t}, doc, extract.Hyperlink)
	if len(refs) != 1 || !slices.Equal(rewritten.References(extract.Hyperlink), refs) {
		t.Fatalf("single reference changed: %+v", rewritten.References(extract.Hyperlink))
	}
}
