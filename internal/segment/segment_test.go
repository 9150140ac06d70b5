package segment

import (
	"slices"
	"testing"
)

var roundTripInputs = []string{
	"",
	" ",
	"Hello, world! Bye.",
	"  leading and trailing  ",
	"What?! Really... yes.   Next line\nwith\ttabs",
	"no terminal punctuation here",
	"...",
	"-- -- --",
	"Ünïcödé wörds and 日本語 text. Done!",
	"a",
	"\u00a0nbsp\u00a0separated\u00a0",
	"1234 5678.",
}

func TestSplit_JoinRoundTrip(t *testing.T) {
	for _, g := range []Granularity{Letter, Word, Sentence} {
		for _, in := range roundTripInputs {
			segs := Split(in, g)
			if got := Join(segs); got != in {
				t.Fatalf("granularity=%s: Join(Split(%q)) = %q", g, in, got)
			}
			for _, s := range segs {
				if s.Text == "" {
					t.Fatalf("granularity=%s input=%q emitted empty segment", g, in)
				}
			}
		}
	}
}

func TestSplit_Letters(t *testing.T) {
	segs := Split("Hi, é!", Letter)
	if len(segs) != 6 {
		t.Fatalf("expected 6 segments, got %d", len(segs))
	}
	if got := Units(segs); !slices.Equal(got, []string{"H", "i"}) {
		t.Fatalf("units=%q", got)
	}
	if segs[4] != (Segment{Text: "é"}) || segs[2].Unit {
		t.Fatalf("non-ASCII letters and punctuation must be separators: %+v", segs)
	}
}

func TestSplit_WordsKeepWhitespaceRuns(t *testing.T) {
	want := []Segment{
		{Text: "Hello,", Unit: true},
		{Text: "  "},
		{Text: "world", Unit: true},
		{Text: " "},
		{Text: "--"},
		{Text: " "},
		{Text: "bye", Unit: true},
		{Text: "\n"},
	}
	if got := Split("Hello,  world -- bye\n", Word); !slices.Equal(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestSplit_WordsNumbersAreSeparators(t *testing.T) {
	if got := Units(Split("room 101 b2", Word)); !slices.Equal(got, []string{"room", "b2"}) {
		t.Fatalf("units=%q", got)
	}
}

func TestSplit_Sentences(t *testing.T) {
	want := []Segment{
		{Text: "One", Unit: true},
		{Text: ". "},
		{Text: "Two", Unit: true},
		{Text: "?! "},
		{Text: "Three", Unit: true},
	}
	if got := Split("One. Two?! Three", Sentence); !slices.Equal(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestSplit_SentencesWhitespaceOnlyIsSeparator(t *testing.T) {
	segs := Split("   ", Sentence)
	if len(segs) != 1 || segs[0].Unit {
		t.Fatalf("got %+v", segs)
	}
	if got := Units(Split("... !!", Sentence)); len(got) != 0 {
		t.Fatalf("expected no units, got %q", got)
	}
}

func TestUnits(t *testing.T) {
	cases := []struct {
		in   string
		g    Granularity
		want int
	}{
		{"a b c", Word, 3},
		{"", Letter, 0},
		{"Ok. Fine", Sentence, 2},
	}
	for _, c := range cases {
		if got := len(Units(Split(c.in, c.g))); got != c.want {
			t.Fatalf("%s units of %q = %d, want %d", c.g, c.in, got, c.want)
		}
	}
}

func TestGranularity_String(t *testing.T) {
	cases := map[Granularity]string{
		Letter:         "letter",
		Word:           "word",
		Sentence:       "sentence",
		Granularity(9): "granularity(9)",
	}
	for g, want := range cases {
		if got := g.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}
