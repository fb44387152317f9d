// Package server exposes a Tokenizer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/go-ttstok/internal/characters"
	"github.com/example/go-ttstok/internal/config"
	"github.com/example/go-ttstok/internal/phonemizer"
	"github.com/example/go-ttstok/internal/text"
	"github.com/example/go-ttstok/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes int
	workers      int
	logger       *slog.Logger
	registry     *prometheus.Registry
}

func defaultOptions() options {
	return options{
		maxTextBytes: 4096,
		workers:      4,
		logger:       slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /tokenize.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent tokenization calls.
// Zero or less disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry serves /metrics from reg. By default every handler gets its
// own registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	opts    options
	sem     chan struct{}
	log     *slog.Logger
	metrics *metrics

	// mu guards base: it owns the server-wide not-found set, merged from
	// each request's clone.
	mu   sync.Mutex
	base *tokenizer.Tokenizer
}

// NewHandler returns an http.Handler serving /health, /phonemizers, /vocab,
// POST /tokenize, POST /detokenize and /metrics. Every request encodes with
// its own clone of base.
func NewHandler(base *tokenizer.Tokenizer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.registry == nil {
		opts.registry = prometheus.NewRegistry()
	}

	h := &handler{
		opts:    opts,
		log:     opts.logger,
		metrics: newMetrics(opts.registry),
		base:    base,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.instrument("/health", h.handleHealth))
	mux.HandleFunc("/phonemizers", h.instrument("/phonemizers", h.handlePhonemizers))
	mux.HandleFunc("/vocab", h.instrument("/vocab", h.handleVocab))
	mux.HandleFunc("/tokenize", h.instrument("/tokenize", h.handleTokenize))
	mux.HandleFunc("/detokenize", h.instrument("/detokenize", h.handleDetokenize))
	mux.Handle("/metrics", promhttp.HandlerFor(opts.registry, promhttp.HandlerOpts{}))

	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}

	return "dev"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		h.metrics.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		h.metrics.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handlePhonemizers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, phonemizer.Describe())
}

// VocabResponse is the body of GET /vocab.
type VocabResponse struct {
	Size     int      `json:"size"`
	Symbols  []string `json:"symbols"`
	PadID    int      `json:"pad_id"`
	BlankID  int      `json:"blank_id"`
	BOSID    int      `json:"bos_id"`
	EOSID    int      `json:"eos_id"`
	NotFound []string `json:"not_found"`
}

func (h *handler) handleVocab(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	resp := VocabResponse{
		Size:     h.base.Characters().Size(),
		Symbols:  h.base.Characters().Vocab(),
		PadID:    h.base.PadID(),
		BlankID:  h.base.BlankID(),
		BOSID:    h.base.BOSID(),
		EOSID:    h.base.EOSID(),
		NotFound: h.base.NotFoundCharacters(),
	}
	h.mu.Unlock()

	if resp.NotFound == nil {
		resp.NotFound = []string{}
	}

	writeJSON(w, http.StatusOK, resp)
}

type tokenizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	// MaxTokens > 0 splits the text at sentence boundaries into chunks of
	// at most MaxTokens IDs.
	MaxTokens int `json:"max_tokens"`
}

// TokenizeResponse is the body of POST /tokenize.
type TokenizeResponse struct {
	IDs      []int        `json:"ids"`
	NotFound []string     `json:"not_found"`
	Chunks   []text.Chunk `json:"chunks,omitempty"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req tokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text field is required")
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	// Acquire a worker slot, honouring context cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	h.mu.Lock()
	tok := h.base.Clone()
	h.mu.Unlock()

	start := time.Now()

	var (
		resp TokenizeResponse
		err  error
	)

	// Without a token budget the raw text is encoded as is; chunking
	// normalizes it first.
	if req.MaxTokens <= 0 {
		resp.IDs, err = tok.TextToIDs(req.Text, req.Language)
	} else {
		var chunks []text.Chunk

		chunks, err = text.ChunkByTokens(req.Text, req.Language, tok, req.MaxTokens)
		if err == nil {
			for _, c := range chunks {
				resp.IDs = append(resp.IDs, c.IDs...)
			}

			resp.Chunks = chunks
		}
	}

	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tokenizer.ErrUnsupportedLanguage) || errors.Is(err, text.ErrEmptyText) {
			status = http.StatusBadRequest
		}

		h.log.WarnContext(r.Context(), "tokenize failed",
			slog.String("language", req.Language),
			slog.Int("text_len", len(req.Text)),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		writeError(w, status, err.Error())

		return
	}

	resp.NotFound = tok.NotFoundCharacters()
	if resp.NotFound == nil {
		resp.NotFound = []string{}
	}

	if resp.IDs == nil {
		resp.IDs = []int{}
	}

	h.mu.Lock()
	before := len(h.base.NotFoundCharacters())
	h.base.MergeNotFound(resp.NotFound...)
	added := len(h.base.NotFoundCharacters()) - before
	h.mu.Unlock()

	h.metrics.tokensTotal.Add(float64(len(resp.IDs)))
	h.metrics.notFoundTotal.Add(float64(added))

	h.log.InfoContext(r.Context(), "tokenize complete",
		slog.String("language", req.Language),
		slog.Int("text_len", len(req.Text)),
		slog.Int("tokens", len(resp.IDs)),
		slog.Int("not_found", len(resp.NotFound)),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusOK, resp)
}

type detokenizeRequest struct {
	IDs []int `json:"ids"`
}

func (h *handler) handleDetokenize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req detokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// Decoding reads only the immutable character set.
	decoded, err := h.base.IDsToText(req.IDs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, characters.ErrOutOfRange) {
			status = http.StatusBadRequest
		}

		writeError(w, status, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": decoded})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	tok             *tokenizer.Tokenizer
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a Server for cfg. A nil tok is built from cfg on Start.
func New(cfg config.Config, tok *tokenizer.Tokenizer) *Server {
	timeout := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}

	return &Server{
		cfg:             cfg,
		tok:             tok,
		logger:          slog.Default(),
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger overrides the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

func (s *Server) Start(ctx context.Context) error {
	tok := s.tok
	if tok == nil {
		tc := s.cfg.TokenizerConfig()
		tc.Logger = s.logger

		var err error

		tok, err = tokenizer.NewFromConfig(tc)
		if err != nil {
			return fmt.Errorf("initialize tokenizer: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := NewHandler(tok,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithLogger(s.logger),
		WithRegistry(reg),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("listening", slog.String("addr", s.cfg.Server.ListenAddr), slog.Any("tokenizer", tok))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	return nil
}
