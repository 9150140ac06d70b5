package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperifyio/webscrambler/internal/fetch"
	"github.com/hyperifyio/webscrambler/internal/scramble"
)

type zeroSource struct{}

func (zeroSource) IntN(int) int { return 0 }

type fakeFetcher struct {
	body  string
	err   error
	calls int
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string) (fetch.Page, error) {
	f.calls++
	if f.err != nil {
		return fetch.Page{}, f.err
	}
	return fetch.Page{URL: rawURL, ContentType: "text/html", Body: []byte(f.body)}, nil
}

type fakeSummarizer struct {
	got string
	out string
	err error
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.got = text
	return f.out, f.err
}

func newService(f Fetcher, sum Summarizer) *Service {
	return &Service{Fetcher: f, Scrambler: scramble.New(zeroSource{}), Summarizer: sum}
}

func TestValidateRequest(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		msg  string
	}{
		{"missing url", Request{ScrambleType: "words"}, MsgMissingFields},
		{"missing type", Request{URL: "https://example.com"}, MsgMissingFields},
		{"blank url", Request{URL: "   ", ScrambleType: "words"}, MsgMissingFields},
		{"relative url", Request{URL: "example.com/page", ScrambleType: "words"}, MsgInvalidURL},
		{"ftp url", Request{URL: "ftp://example.com", ScrambleType: "words"}, MsgInvalidURL},
		{"unknown type", Request{URL: "https://example.com", ScrambleType: "paragraphs"}, MsgInvalidType},
		{"passthrough not accepted", Request{URL: "https://example.com", ScrambleType: "passthrough"}, MsgInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateRequest(tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Msg != tc.msg {
				t.Fatalf("msg=%q, want %q", ve.Msg, tc.msg)
			}
		})
	}

	typ, err := ValidateRequest(Request{URL: "https://example.com", ScrambleType: "sentences"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != scramble.Sentences {
		t.Fatalf("type=%q", typ)
	}
}

func TestScramble_InvalidRequestDoesNotFetch(t *testing.T) {
	f := &fakeFetcher{body: "<p>x</p>"}
	if _, err := newService(f, nil).Scramble(context.Background(), Request{URL: "nope", ScrambleType: "words"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if f.calls != 0 {
		t.Fatalf("fetcher called %d times", f.calls)
	}
}

func TestScramble_Sentences(t *testing.T) {
	f := &fakeFetcher{body: "<html><body><p>One. Two. Three.</p></body></html>"}
	resp, err := newService(f, nil).Scramble(context.Background(), Request{URL: "https://example.com", ScrambleType: "sentences"})
	if err != nil {
		t.Fatalf("scramble: %v", err)
	}
	want := Response{
		OriginalText:  "One. Two. Three.",
		ScrambledText: "Two. Three. One.",
		URL:           "https://example.com",
		ScrambleType:  "sentences",
	}
	if resp != want {
		t.Fatalf("got %+v, want %+v", resp, want)
	}
}

func TestScramble_Links(t *testing.T) {
	f := &fakeFetcher{body: `<a href="https://a.example">A</a><a href="/local">L</a><a href="https://b.example">B</a>`}
	resp, err := newService(f, nil).Scramble(context.Background(), Request{URL: "https://example.com", ScrambleType: "links"})
	if err != nil {
		t.Fatalf("scramble: %v", err)
	}
	if resp.OriginalText != "A: https://a.example\nB: https://b.example" {
		t.Fatalf("original=%q", resp.OriginalText)
	}
	if resp.ScrambledText != "A: https://b.example\nB: https://a.example" {
		t.Fatalf("scrambled=%q", resp.ScrambledText)
	}
}

func TestScramble_FetchErrorsPropagate(t *testing.T) {
	f := &fakeFetcher{err: &fetch.StatusError{Code: 404, Status: "Not Found"}}
	_, err := newService(f, nil).Scramble(context.Background(), Request{URL: "https://example.com", ScrambleType: "words"})
	var se *fetch.StatusError
	if !errors.As(err, &se) || se.Code != 404 {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}

	f = &fakeFetcher{err: fetch.ErrTimeout}
	_, err = newService(f, nil).Scramble(context.Background(), Request{URL: "https://example.com", ScrambleType: "words"})
	if !errors.Is(err, fetch.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestScramble_EmptyContent(t *testing.T) {
	f := &fakeFetcher{body: "<html><body><script>var a = 1;</script></body></html>"}
	_, err := newService(f, nil).Scramble(context.Background(), Request{URL: "https://example.com", ScrambleType: "words"})
	if !errors.Is(err, scramble.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestExtract_Passthrough(t *testing.T) {
	f := &fakeFetcher{body: "<body><h1>Title</h1>\n<p>Body   text</p></body>"}
	res, err := newService(f, nil).Extract(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.OriginalText != "Title Body text" || res.ScrambledText != res.OriginalText {
		t.Fatalf("unexpected passthrough %+v", res)
	}
}

func TestSummarize(t *testing.T) {
	sum := &fakeSummarizer{out: "short"}
	svc := newService(nil, sum)

	_, err := svc.Summarize(context.Background(), SummaryRequest{Text: "  "})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Msg != MsgMissingText {
		t.Fatalf("expected missing text error, got %v", err)
	}

	resp, err := svc.Summarize(context.Background(), SummaryRequest{Text: "long text"})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if resp.Summary != "short" || sum.got != "long text" {
		t.Fatalf("summary=%q sent=%q", resp.Summary, sum.got)
	}

	sum.err = errors.New("boom")
	if _, err := svc.Summarize(context.Background(), SummaryRequest{Text: "x"}); err == nil {
		t.Fatalf("expected summarizer error")
	}
}

func TestSummarizeURL(t *testing.T) {
	f := &fakeFetcher{body: "<p>Page words here</p>"}
	sum := &fakeSummarizer{out: "about words"}
	resp, err := newService(f, sum).SummarizeURL(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("summarize url: %v", err)
	}
	if resp.Summary != "about words" || sum.got != "Page words here" {
		t.Fatalf("summary=%q sent=%q", resp.Summary, sum.got)
	}
}
