package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections improve readability and map naturally to flags/env.
// Durations are strings in time.ParseDuration form so all three formats
// read them the same way.
type FileConfig struct {
	Listen string `yaml:"listen" json:"listen" toml:"listen"`

	LLM struct {
		Provider  string `yaml:"provider" json:"provider" toml:"provider"`
		BaseURL   string `yaml:"base" json:"base" toml:"base"`
		Model     string `yaml:"model" json:"model" toml:"model"`
		APIKey    string `yaml:"key" json:"key" toml:"key"`
		GeminiKey string `yaml:"geminiKey" json:"geminiKey" toml:"geminiKey"`
		SSLVerify *bool  `yaml:"sslVerify" json:"sslVerify" toml:"sslVerify"`
	} `yaml:"llm" json:"llm" toml:"llm"`

	Fetch struct {
		Timeout       string `yaml:"timeout" json:"timeout" toml:"timeout"`
		UserAgent     string `yaml:"userAgent" json:"userAgent" toml:"userAgent"`
		MaxConcurrent int    `yaml:"maxConcurrent" json:"maxConcurrent" toml:"maxConcurrent"`
	} `yaml:"fetch" json:"fetch" toml:"fetch"`

	Cache struct {
		Dir         string `yaml:"dir" json:"dir" toml:"dir"`
		MaxAge      string `yaml:"maxAge" json:"maxAge" toml:"maxAge"`
		MaxEntries  int    `yaml:"maxEntries" json:"maxEntries" toml:"maxEntries"`
		Clear       bool   `yaml:"clear" json:"clear" toml:"clear"`
		StrictPerms bool   `yaml:"strictPerms" json:"strictPerms" toml:"strictPerms"`
		Disable     bool   `yaml:"disable" json:"disable" toml:"disable"`
	} `yaml:"cache" json:"cache" toml:"cache"`

	Summary struct {
		RPS   float64 `yaml:"rps" json:"rps" toml:"rps"`
		Burst int     `yaml:"burst" json:"burst" toml:"burst"`
	} `yaml:"summary" json:"summary" toml:"summary"`

	Verbose bool `yaml:"verbose" json:"verbose" toml:"verbose"`
}

// LoadConfigFile reads YAML, JSON or TOML into FileConfig, chosen by
// extension.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg. Flags should already have been parsed; this
// function lets file config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	setString := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v, field string) error {
		if *dst != 0 || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", field, err)
		}
		*dst = d
		return nil
	}

	setString(&cfg.ListenAddr, fc.Listen)

	setString(&cfg.LLMProvider, fc.LLM.Provider)
	setString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setString(&cfg.LLMModel, fc.LLM.Model)
	setString(&cfg.LLMAPIKey, fc.LLM.APIKey)
	setString(&cfg.GeminiAPIKey, fc.LLM.GeminiKey)
	if cfg.LLMSSLVerify == nil && fc.LLM.SSLVerify != nil {
		v := *fc.LLM.SSLVerify
		cfg.LLMSSLVerify = &v
	}

	if err := setDuration(&cfg.FetchTimeout, fc.Fetch.Timeout, "fetch.timeout"); err != nil {
		return err
	}
	setString(&cfg.FetchUserAgent, fc.Fetch.UserAgent)
	if cfg.FetchMaxConcurrent == 0 && fc.Fetch.MaxConcurrent > 0 {
		cfg.FetchMaxConcurrent = fc.Fetch.MaxConcurrent
	}

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if err := setDuration(&cfg.CacheMaxAge, fc.Cache.MaxAge, "cache.maxAge"); err != nil {
		return err
	}
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if !cfg.DisableCache && fc.Cache.Disable {
		cfg.DisableCache = true
	}

	if cfg.SummaryRPS == 0 && fc.Summary.RPS != 0 {
		cfg.SummaryRPS = fc.Summary.RPS
	}
	if cfg.SummaryBurst == 0 && fc.Summary.Burst != 0 {
		cfg.SummaryBurst = fc.Summary.Burst
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	return nil
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown llm provider %q (want %s or %s)", cfg.LLMProvider, ProviderOpenAI, ProviderGemini)
	}
	if cfg.FetchTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.FetchMaxConcurrent < 0 || cfg.CacheMaxEntries < 0 || cfg.SummaryBurst < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
