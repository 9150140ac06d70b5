package budget

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkEstimateTokens(b *testing.B) {
	for _, n := range []int{256, 3000, 16384} {
		s := strings.Repeat("word ", n/5)
		b.Run(fmt.Sprintf("chars=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = EstimateTokens(s)
			}
		})
	}
}

func BenchmarkInputChars(b *testing.B) {
	cases := []struct {
		name  string
		model string
	}{
		{"groq llama", "llama-3.1-8b-instant"},
		{"gemini", "gemini-2.5-flash"},
		{"unknown model default 8k", "mystery-model"},
	}
	for _, cs := range cases {
		b.Run(cs.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = InputChars(cs.model, 200, 64)
			}
		})
	}
}
