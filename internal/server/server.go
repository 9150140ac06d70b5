// Package server exposes the scramble and summary operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/webscrambler/internal/fetch"
	"github.com/hyperifyio/webscrambler/internal/scramble"
	"github.com/hyperifyio/webscrambler/internal/service"
)

// Client-facing error messages.
const (
	MsgEmptyContent  = "No content found for the selected scrambling method"
	MsgTimeout       = "Request timeout - the website took too long to respond"
	MsgSummaryFailed = "Failed to generate AI summary"
	MsgRateLimited   = "Too many summary requests, please slow down"
	MsgBadJSON       = "Invalid JSON body"
	MsgInternal      = "Internal server error"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 1 << 20

// API is the operation surface the handlers call. *service.Service
// satisfies it.
type API interface {
	Scramble(ctx context.Context, req service.Request) (service.Response, error)
	Summarize(ctx context.Context, req service.SummaryRequest) (service.SummaryResponse, error)
}

// Options tunes the HTTP surface.
type Options struct {
	// SummaryRPS and SummaryBurst shape the token bucket guarding the summary
	// endpoint. SummaryRPS <= 0 disables the limit.
	SummaryRPS   float64
	SummaryBurst int
	// MaxBodyBytes caps request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Logger receives access and error logs. Nil uses a disabled logger.
	Logger *zerolog.Logger
}

// Server routes HTTP requests to an API.
type Server struct {
	api     API
	opts    Options
	log     zerolog.Logger
	limiter *rate.Limiter
	router  chi.Router
}

// New builds the router for api.
func New(api API, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{api: api, opts: opts, log: zerolog.Nop()}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	if opts.SummaryRPS > 0 {
		burst := opts.SummaryBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.SummaryRPS), burst)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(accessLog(s.log))
	r.Use(recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/scramble", s.handleScramble)
	r.With(s.rateLimit).Post("/api/summary", s.handleSummary)
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleScramble(w http.ResponseWriter, r *http.Request) {
	var req service.Request
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.api.Scramble(r.Context(), req)
	if err != nil {
		code, msg := scrambleError(err)
		if code >= http.StatusInternalServerError {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("url", req.URL).Msg("scramble failed")
		}
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req service.SummaryRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.api.Summarize(r.Context(), req)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Msg)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("summary failed")
		writeError(w, http.StatusInternalServerError, MsgSummaryFailed)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, MsgRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, MsgBadJSON)
		return false
	}
	return true
}

// scrambleError maps a scramble failure to a status and client message.
func scrambleError(err error) (int, string) {
	var ve *service.ValidationError
	var se *fetch.StatusError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.Is(err, fetch.ErrInvalidURL):
		return http.StatusBadRequest, service.MsgInvalidURL
	case errors.Is(err, scramble.ErrEmptyContent):
		return http.StatusBadRequest, MsgEmptyContent
	case errors.As(err, &se):
		return http.StatusBadRequest, fmt.Sprintf("Failed to fetch content: %d %s", se.Code, se.Status)
	case errors.Is(err, fetch.ErrTimeout):
		return http.StatusRequestTimeout, MsgTimeout
	default:
		return http.StatusInternalServerError, "Failed to process request: " + err.Error()
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
