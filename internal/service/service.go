// Package service validates scramble and summary requests and runs them
// against the fetcher, the scrambler and the summarizer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webscrambler/internal/extract"
	"github.com/hyperifyio/webscrambler/internal/fetch"
	"github.com/hyperifyio/webscrambler/internal/scramble"
)

// ValidationError is a request the caller must fix before retrying.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation messages returned to clients verbatim.
const (
	MsgMissingFields = "URL and scramble type are required"
	MsgInvalidURL    = "Invalid URL format"
	MsgInvalidType   = "Invalid scramble type"
	MsgMissingText   = "Text content is required"
)

// Fetcher retrieves a page body. *fetch.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (fetch.Page, error)
}

// Summarizer turns plain text into a short summary. *summary.Summarizer
// satisfies it.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Request is the scramble call input.
type Request struct {
	URL          string `json:"url"`
	ScrambleType string `json:"scrambleType"`
}

// Response is the scramble call output.
type Response struct {
	OriginalText  string `json:"originalText"`
	ScrambledText string `json:"scrambledText"`
	URL           string `json:"url"`
	ScrambleType  string `json:"scrambleType"`
}

// SummaryRequest is the summary call input.
type SummaryRequest struct {
	Text string `json:"text"`
}

// SummaryResponse is the summary call output.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// Service wires the boundary collaborators to the scramble coordinator.
type Service struct {
	Fetcher    Fetcher
	Scrambler  *scramble.Scrambler
	Summarizer Summarizer
}

// ValidateRequest checks req and returns the parsed scramble type.
func ValidateRequest(req Request) (scramble.Type, error) {
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.ScrambleType) == "" {
		return "", &ValidationError{Msg: MsgMissingFields}
	}
	if _, err := fetch.ValidateURL(req.URL); err != nil {
		return "", &ValidationError{Msg: MsgInvalidURL}
	}
	t, err := scramble.ParseType(req.ScrambleType)
	if err != nil {
		return "", &ValidationError{Msg: MsgInvalidType}
	}
	return t, nil
}

// Scramble validates req, fetches the page and scrambles it.
func (s *Service) Scramble(ctx context.Context, req Request) (Response, error) {
	t, err := ValidateRequest(req)
	if err != nil {
		return Response{}, err
	}
	res, err := s.run(ctx, req.URL, t)
	if err != nil {
		return Response{}, err
	}
	return Response{
		OriginalText:  res.OriginalText,
		ScrambledText: res.ScrambledText,
		URL:           req.URL,
		ScrambleType:  string(t),
	}, nil
}

// Extract fetches rawURL and returns its canonical extraction on both sides
// of the result. Only URL validation applies.
func (s *Service) Extract(ctx context.Context, rawURL string) (scramble.Result, error) {
	if _, err := fetch.ValidateURL(rawURL); err != nil {
		return scramble.Result{}, &ValidationError{Msg: MsgInvalidURL}
	}
	return s.run(ctx, rawURL, scramble.Passthrough)
}

func (s *Service) run(ctx context.Context, rawURL string, t scramble.Type) (scramble.Result, error) {
	if s.Fetcher == nil {
		return scramble.Result{}, errors.New("service: fetcher not configured")
	}
	start := time.Now()
	page, err := s.Fetcher.Get(ctx, rawURL)
	if err != nil {
		return scramble.Result{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	doc := extract.Parse(string(page.Body))
	plain := doc.PlainText()
	log.Debug().
		Str("url", page.URL).
		Int("html_bytes", len(page.Body)).
		Int("text_chars", utf8.RuneCountInString(plain)).
		Str("type", string(t)).
		Dur("fetch_dur", time.Since(start)).
		Msg("page extracted")

	res, err := s.Scrambler.ScrambleDocument(doc, plain, t)
	if err != nil {
		return scramble.Result{}, err
	}
	return res, nil
}

// Summarize validates req and asks the summarizer for a summary.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) (SummaryResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return SummaryResponse{}, &ValidationError{Msg: MsgMissingText}
	}
	if s.Summarizer == nil {
		return SummaryResponse{}, errors.New("service: summarizer not configured")
	}
	out, err := s.Summarizer.Summarize(ctx, req.Text)
	if err != nil {
		return SummaryResponse{}, err
	}
	return SummaryResponse{Summary: out}, nil
}

// SummarizeURL fetches rawURL, extracts its plain text and summarizes it.
func (s *Service) SummarizeURL(ctx context.Context, rawURL string) (SummaryResponse, error) {
	res, err := s.Extract(ctx, rawURL)
	if err != nil {
		return SummaryResponse{}, err
	}
	return s.Summarize(ctx, SummaryRequest{Text: res.OriginalText})
}
