package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webscrambler/internal/cache"
	"github.com/hyperifyio/webscrambler/internal/fetch"
	"github.com/hyperifyio/webscrambler/internal/llm"
	"github.com/hyperifyio/webscrambler/internal/scramble"
	"github.com/hyperifyio/webscrambler/internal/server"
	"github.com/hyperifyio/webscrambler/internal/service"
	"github.com/hyperifyio/webscrambler/internal/summary"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// App owns the wired components for one process.
type App struct {
	cfg     Config
	llm     llm.Client
	svc     *service.Service
	server  *server.Server
	closers []io.Closer
}

// New validates cfg, applies defaults and wires the fetcher, scrambler,
// summarizer, service and HTTP server.
func New(ctx context.Context, cfg Config) (*App, error) {
	ApplyDefaults(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg}

	client, model, err := a.newLLMClient(ctx)
	if err != nil {
		return nil, err
	}
	a.llm = client

	sum := &summary.Summarizer{Client: client, Model: model}
	if c := a.setupCache(); c != nil {
		sum.Cache = c
	}

	fetcher := &fetch.Client{
		HTTPClient:    newFetchHTTPClient(),
		UserAgent:     cfg.FetchUserAgent,
		Timeout:       cfg.FetchTimeout,
		MaxConcurrent: cfg.FetchMaxConcurrent,
	}
	a.svc = &service.Service{
		Fetcher:    fetcher,
		Scrambler:  scramble.New(nil),
		Summarizer: sum,
	}
	a.server = server.New(a.svc, server.Options{
		SummaryRPS:   cfg.SummaryRPS,
		SummaryBurst: cfg.SummaryBurst,
		Logger:       &log.Logger,
	})
	return a, nil
}

func (a *App) newLLMClient(ctx context.Context) (llm.Client, string, error) {
	model := strings.TrimSpace(a.cfg.LLMModel)
	switch strings.ToLower(strings.TrimSpace(a.cfg.LLMProvider)) {
	case ProviderGemini:
		key := a.cfg.GeminiAPIKey
		if key == "" {
			key = a.cfg.LLMAPIKey
		}
		p, err := llm.NewGeminiProvider(ctx, key)
		if err != nil {
			return nil, "", err
		}
		a.closers = append(a.closers, p)
		if model == "" {
			model = llm.DefaultGeminiModel
		}
		return p, model, nil
	default:
		if model == "" {
			model = llm.DefaultModel
		}
		p := llm.NewOpenAIProvider(a.cfg.LLMAPIKey, a.cfg.LLMBaseURL, newLLMHTTPClient(a.cfg.sslVerify()))
		return p, model, nil
	}
}

// setupCache applies the clear and purge controls and returns the summary
// cache, or nil when caching is off.
func (a *App) setupCache() *cache.LLMCache {
	if a.cfg.DisableCache || strings.TrimSpace(a.cfg.CacheDir) == "" {
		return nil
	}
	dir := a.cfg.CacheDir
	if a.cfg.CacheClear {
		if err := cache.ClearDir(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cache clear failed")
		}
	}
	if a.cfg.CacheMaxAge > 0 {
		if n, err := cache.PurgeLLMCacheByAge(dir, a.cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("purged stale summary cache entries")
		}
	}
	if a.cfg.CacheMaxEntries > 0 {
		if _, err := cache.EnforceLLMCacheLimits(dir, a.cfg.CacheMaxEntries); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		}
	}
	return &cache.LLMCache{Dir: dir, StrictPerms: a.cfg.CacheStrictPerms}
}

// Preflight lists models when the provider supports it. Failures are logged
// and never fatal.
func (a *App) Preflight(ctx context.Context) {
	lister, ok := a.llm.(llm.ModelLister)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) > 0 {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	} else {
		log.Warn().Msg("LLM returned zero models")
	}
}

// Service exposes the wired operations for non-HTTP callers.
func (a *App) Service() *service.Service { return a.svc }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Run serves HTTP on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("version", BuildVersion).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases provider resources.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Debug().Err(err).Msg("close")
		}
	}
}
