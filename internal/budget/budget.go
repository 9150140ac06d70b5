// Package budget estimates token usage so summary prompts stay inside a
// model's context window.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// charsPerToken is a conservative average for English prose.
const charsPerToken = 4

// EstimateTokensFromChars converts a character count into an estimated token
// count using a conservative heuristic (~4 chars per token in English). The
// result is always at least 1 when chars > 0.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / charsPerToken))
}

// EstimateTokens returns the estimated token count of s, counting code points.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(utf8.RuneCountInString(s))
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to a sensible default.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return defaultContext
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	switch {
	case strings.HasPrefix(name, "gemini-"):
		return 1_000_000
	case strings.HasSuffix(name, "128k"):
		return 128_000
	case strings.HasSuffix(name, "32k"):
		return 32_768
	}
	return defaultContext
}

// HeadroomTokens returns a conservative safety headroom to subtract from the
// model context so that prompt sizing avoids overruns due to tokenizer and
// message framing overheads: the larger of 5% of the context or 512 tokens.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingContext computes the remaining input token budget after reserving
// output tokens, headroom and the tokens already used. Never negative.
func RemainingContext(modelName string, reservedForOutput int, usedTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - HeadroomTokens(modelName) - reservedForOutput - usedTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// InputChars returns how many characters of free text fit alongside a prompt
// frame of frameTokens while reserving reservedForOutput tokens.
func InputChars(modelName string, reservedForOutput int, frameTokens int) int {
	return RemainingContext(modelName, reservedForOutput, frameTokens) * charsPerToken
}

const defaultContext = 8192

// knownModelMax contains rough context sizes for common model identifiers.
// These are best-effort and do not need to be exhaustive.
var knownModelMax = map[string]int{
	// Groq-hosted
	"llama-3.1-8b-instant":    131_072,
	"llama-3.3-70b-versatile": 131_072,
	"gemma2-9b-it":            8_192,
	"llama3-8b-8192":          8_192,

	// OpenAI family (approximate)
	"gpt-4o":        128_000,
	"gpt-4o-mini":   128_000,
	"gpt-3.5-turbo": 16_384,

	// Common OSS OpenAI-compatible backends seen in the wild
	"openai/gpt-oss-20b": 4_096,
	"gpt-oss-20b":        4_096,
}
