package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	applyEnv(cfg, false)
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This is used to let env take
// precedence over values coming from a config file while still allowing flags
// to remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	applyEnv(cfg, true)
}

func applyEnv(cfg *Config, force bool) {
	setString := func(dst *string, keys ...string) {
		if *dst != "" && !force {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if *dst != 0 && !force {
			return
		}
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = n
		}
	}
	setFloat := func(dst *float64, key string) {
		if *dst != 0 && !force {
			return
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
			*dst = f
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if *dst != 0 && !force {
			return
		}
		if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = d
		}
	}
	// Without force only a truthy value can flip an unset bool; with force a
	// falsey value clears it too.
	setBool := func(dst *bool, key string) {
		if *dst && !force {
			return
		}
		if v, ok := parseBool(os.Getenv(key)); ok && (v || force) {
			*dst = v
		}
	}

	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	// GROQ_API_KEY is accepted for hosted Groq deployments.
	setString(&cfg.LLMAPIKey, "LLM_API_KEY", "GROQ_API_KEY")
	setString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	if cfg.LLMSSLVerify == nil || force {
		if v, ok := parseBool(os.Getenv("LLM_SSL_VERIFY")); ok {
			cfg.LLMSSLVerify = &v
		}
	}

	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setString(&cfg.FetchUserAgent, "FETCH_USER_AGENT")
	setInt(&cfg.FetchMaxConcurrent, "FETCH_MAX_CONCURRENT")

	setString(&cfg.CacheDir, "CACHE_DIR")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setInt(&cfg.CacheMaxEntries, "CACHE_MAX_ENTRIES")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.DisableCache, "NO_CACHE")

	setFloat(&cfg.SummaryRPS, "SUMMARY_RPS")
	setInt(&cfg.SummaryBurst, "SUMMARY_BURST")

	setBool(&cfg.Verbose, "VERBOSE")
}

func parseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
