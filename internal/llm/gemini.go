package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured for Gemini.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider adapts Google's Gemini API to Client. System messages become
// the model's system instruction; all other messages are sent as user text.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider opens a Gemini client. Callers must Close it.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiProvider{client: cl}, nil
}

// Close releases the underlying connection.
func (p *GeminiProvider) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *GeminiProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	name := strings.TrimSpace(request.Model)
	if name == "" {
		name = DefaultGeminiModel
	}
	m := p.client.GenerativeModel(name)
	if request.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(request.MaxTokens))
	}
	if request.Temperature > 0 {
		m.SetTemperature(request.Temperature)
	}

	var system []genai.Part
	var parts []genai.Part
	for _, msg := range request.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if msg.Role == openai.ChatMessageRoleSystem {
			system = append(system, genai.Text(msg.Content))
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(parts) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("gemini: no user content")
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("gemini: generate: %w", err)
	}
	return toChatResponse(name, resp), nil
}

// toChatResponse flattens Gemini candidates into chat completion choices,
// keeping only text parts.
func toChatResponse(model string, resp *genai.GenerateContentResponse) openai.ChatCompletionResponse {
	out := openai.ChatCompletionResponse{Model: model}
	if resp == nil {
		return out
	}
	for i, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		out.Choices = append(out.Choices, openai.ChatCompletionChoice{
			Index: i,
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: b.String(),
			},
		})
	}
	if resp.UsageMetadata != nil {
		out.Usage = openai.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out
}
