// Package server exposes the extraction pipeline and the form sessions it fills over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/trade-hire/internal/db"
	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/provenance"
	"github.com/jonathan/trade-hire/internal/sanitize"
	"github.com/jonathan/trade-hire/internal/server/middleware"
	"github.com/jonathan/trade-hire/internal/server/ratelimit"
)

// DefaultMaxUploadBytes bounds resume uploads when Config leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// Extractor runs one extraction. *extraction.Pipeline implements it.
type Extractor interface {
	Run(ctx context.Context, req extraction.Request) (*sanitize.Result, error)
}

// RunStatsLister reports aggregate run statistics. *db.DB implements it.
type RunStatsLister interface {
	ListRunStats(ctx context.Context, limit int) ([]db.RunStats, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	extractor   Extractor
	forms       provenance.Store
	stats       RunStatsLister
	db          *db.DB
	auth        middleware.TokenValidator
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	maxUpload   int64
}

// Config holds server dependencies and settings.
type Config struct {
	Port      int
	Extractor Extractor

	// DB, when set, backs Forms and Stats unless they are given explicitly
	// and is pinged by /health.
	DB    *db.DB
	Forms provenance.Store // defaults to an in-memory store
	Stats RunStatsLister   // nil disables /runs/stats

	// Auth, when set, requires a bearer token on extraction and form routes.
	Auth middleware.TokenValidator

	RateLimit      *ratelimit.Config // nil loads from the environment
	MaxUploadBytes int64
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("server requires an extractor")
	}

	s := &Server{
		extractor: cfg.Extractor,
		forms:     cfg.Forms,
		stats:     cfg.Stats,
		db:        cfg.DB,
		auth:      cfg.Auth,
		validate:  newValidator(),
		maxUpload: cfg.MaxUploadBytes,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.forms == nil {
		if cfg.DB != nil {
			s.forms = cfg.DB.Forms()
		} else {
			s.forms = provenance.NewMemoryStore()
		}
	}
	if s.stats == nil && cfg.DB != nil {
		s.stats = cfg.DB
	}

	rateCfg := cfg.RateLimit
	if rateCfg == nil {
		rateCfg = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rateCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /schemas", s.handleListSchemas)
	mux.HandleFunc("GET /schemas/{task}", s.handleGetSchema)

	mux.Handle("POST /extract/resume", s.protected(s.handleExtractResume))
	mux.Handle("POST /extract/website", s.protected(s.handleExtractWebsite))
	mux.Handle("POST /extract/job-posting", s.protected(s.handleExtractJobPosting))

	mux.Handle("POST /forms", s.protected(s.handleCreateForm))
	mux.Handle("GET /forms/{id}", s.protected(s.handleGetForm))
	mux.Handle("PATCH /forms/{id}/fields/{field}", s.protected(s.handlePatchField))

	if s.stats != nil {
		mux.HandleFunc("GET /runs/stats", s.handleRunStats)
	}

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      180 * time.Second, // one model call plus a possible browser render
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("[server] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	log.Println("[server] stopped")
	return nil
}

// Close releases the rate limiter and the database pool.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Server) protected(h http.HandlerFunc) http.Handler {
	if s.auth == nil {
		return h
	}
	return middleware.RequireUser(s.auth)(h)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their budget for the matched endpoint rule.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[server] %s %s %d (%v)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			s.jsonResponse(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	s.jsonResponse(w, http.StatusOK, status)
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.errorResponse(w, &ErrValidation{Field: "limit", Message: "must be an integer between 1 and 500"})
			return
		}
		limit = n
	}

	stats, err := s.stats.ListRunStats(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if stats == nil {
		stats = []db.RunStats{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"stats": stats})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse maps err to a status and writes the error body.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[server] %d: %v", status, err)
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", strconv.Itoa(int(modelRetryAfter.Seconds())))
	}
	s.jsonResponse(w, status, describe(err))
}

// decodeJSON decodes a JSON body into dst and runs struct validation on it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &ErrValidation{Message: "invalid JSON body"}
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// clientID identifies the caller for rate limiting by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retry := int(info.RetryAfter.Round(time.Second).Seconds())
	if info.RetryAfter > 0 && retry == 0 {
		retry = 1
	}
	if retry > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}

	log.Printf("[rate-limit] %s %s from %s: limit=%d reset=%s",
		r.Method, r.URL.Path, clientID(r), info.Limit, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, errorBody{
		Error:   http.StatusText(http.StatusTooManyRequests),
		Code:    "rate_limit_exceeded",
		Message: "Too many requests. Please try again later.",
	})
}

// newValidator reports fields by their json or form tag names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}
