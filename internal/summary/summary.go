package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/webscrambler/internal/budget"
	"github.com/hyperifyio/webscrambler/internal/cache"
	"github.com/hyperifyio/webscrambler/internal/llm"
)

const (
	// DefaultMaxInputChars bounds the text handed to the model, in code points.
	DefaultMaxInputChars = 3000
	// DefaultMaxTokens bounds the model's answer.
	DefaultMaxTokens = 200
)

var (
	// ErrEmptyText is returned when the input has no non-whitespace content.
	ErrEmptyText = errors.New("text content is required")
	// ErrNoSummary indicates the model produced no usable answer.
	ErrNoSummary = errors.New("no summary produced")
)

// Summarizer asks a chat model for a short summary of page text. The model is
// treated as an opaque text-in/text-out function.
type Summarizer struct {
	Client llm.Client
	Model  string
	// Cache, when set, stores answers keyed by model and prompt.
	Cache         *cache.LLMCache
	MaxInputChars int
	MaxTokens     int
	// Sleep is the backoff before the single retry. Nil uses time.Sleep
	// bounded by ctx.
	Sleep func(ctx context.Context, d time.Duration)
}

// Summarize trims text, truncates it and returns the model's summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if s == nil || s.Client == nil {
		return "", errors.New("summarizer not configured")
	}
	model := strings.TrimSpace(s.Model)
	if model == "" {
		model = llm.DefaultModel
	}
	prompt := BuildPrompt(truncate(text, s.inputLimit(model)))
	key := cache.KeyFrom(model, prompt)

	if s.Cache != nil {
		if e, ok, _ := s.Cache.Get(ctx, key); ok {
			log.Debug().Str("model", model).Msg("summary cache hit")
			return e.Text, nil
		}
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: s.maxTokens(),
		N:         1,
	}
	resp, err := s.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		log.Debug().Err(err).Msg("summary call failed, retrying once")
		s.sleep(ctx, 200*time.Millisecond)
		resp, err = s.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("summary call (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoSummary
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrNoSummary
	}
	if s.Cache != nil {
		if err := s.Cache.Save(ctx, key, cache.Entry{Model: model, Text: out}); err != nil {
			log.Warn().Err(err).Msg("summary cache save failed")
		}
	}
	return out, nil
}

// BuildPrompt renders the instruction sent to the model for content.
func BuildPrompt(content string) string {
	var sb strings.Builder
	sb.WriteString("Analyze and summarize the following website content. ")
	sb.WriteString("Provide a concise summary that captures the main topics, key information, and overall purpose of the content. ")
	sb.WriteString("Keep it under 150 words and focus on the most important points.")
	sb.WriteString("\n\nContent to analyze:\n")
	sb.WriteString(content)
	return sb.String()
}

// inputLimit is MaxInputChars, lowered when the model's context window
// cannot hold that much text next to the prompt frame and the answer.
func (s *Summarizer) inputLimit(model string) int {
	limit := DefaultMaxInputChars
	if s.MaxInputChars > 0 {
		limit = s.MaxInputChars
	}
	frame := budget.EstimateTokens(BuildPrompt(""))
	if fit := budget.InputChars(model, s.maxTokens(), frame); fit < limit {
		log.Debug().Str("model", model).Int("limit", fit).Msg("summary input clamped to context window")
		limit = fit
	}
	return limit
}

func (s *Summarizer) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return DefaultMaxTokens
}

func (s *Summarizer) sleep(ctx context.Context, d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// truncate keeps at most n code points of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
