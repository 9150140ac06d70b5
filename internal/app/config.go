package app

import "time"

// Defaults applied by ApplyDefaults for fields left unset.
const (
	DefaultListenAddr   = ":8080"
	DefaultProvider     = ProviderOpenAI
	DefaultCacheDir     = ".webscrambler-cache"
	DefaultSummaryRPS   = 1.0
	DefaultSummaryBurst = 5
)

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds runtime configuration for the application.
type Config struct {
	// HTTP
	ListenAddr string

	// LLM
	LLMProvider  string
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	GeminiAPIKey string
	// LLMSSLVerify controls TLS verification toward the LLM endpoint.
	// Nil means verify.
	LLMSSLVerify *bool

	// Fetch
	FetchTimeout       time.Duration
	FetchUserAgent     string
	FetchMaxConcurrent int

	// Summary cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxEntries  int
	CacheClear       bool
	CacheStrictPerms bool
	// DisableCache turns the summary cache off entirely.
	DisableCache bool

	// Summary rate limit. Zero SummaryRPS means DefaultSummaryRPS; a negative
	// value turns the limit off.
	SummaryRPS   float64
	SummaryBurst int

	Verbose bool
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = DefaultProvider
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}
	if cfg.SummaryRPS == 0 {
		cfg.SummaryRPS = DefaultSummaryRPS
	}
	if cfg.SummaryBurst == 0 {
		cfg.SummaryBurst = DefaultSummaryBurst
	}
}

func (c Config) sslVerify() bool {
	return c.LLMSSLVerify == nil || *c.LLMSSLVerify
}
