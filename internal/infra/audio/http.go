package audio

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docketvoice/internal/domain"
)

const (
	maxAudioBytes = 10 << 20
	maxTextBytes  = 4 << 10
)

var (
	ErrQueueFull     = errors.New("input queue full")
	ErrSourceStopped = errors.New("input source stopped")
)

type HTTPConfig struct {
	Addr      string
	AuthToken string
	PerMinute int
	Burst     int
	QueueSize int
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
}

// HTTPSource accepts recorded clips and typed answers over HTTP, so a phone
// or another machine can drive the interview.
type HTTPSource struct {
	cfg     HTTPConfig
	server  *http.Server
	queue   chan []byte
	logger  *slog.Logger
	router  chi.Router
	limiter *RateLimiter
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// queueMu guards sends against the close in Stop.
	queueMu sync.Mutex
	closed  bool
}

func NewHTTPSource(cfg HTTPConfig, logger *slog.Logger) *HTTPSource {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10
	}
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 30
	}

	h := &HTTPSource{
		cfg:     cfg,
		queue:   make(chan []byte, cfg.QueueSize),
		logger:  logger,
		limiter: NewRateLimiter(cfg.PerMinute, cfg.Burst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware)
		r.Use(h.authenticate)
		r.Post("/audio", h.handleAudio)
		r.Post("/text", h.handleText)
	})
	h.router = r
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}
	if h.isClosed() {
		return ErrSourceStopped
	}

	h.server = &http.Server{
		Addr:         h.cfg.Addr,
		Handler:      h.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h.cancel = cancel
	go h.limiter.Cleanup(cleanupCtx)

	go func() {
		h.logger.Info("HTTP input server starting", "addr", h.cfg.Addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}
	h.cancel()

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.queueMu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.queueMu.Unlock()

	h.running = false
	return nil
}

// NextCommand returns io.EOF once the source is stopped and drained.
func (h *HTTPSource) NextCommand(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-h.queue:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.router
}

// Inject queues data as if it had been posted. It never blocks and fails
// with ErrQueueFull or, after Stop, ErrSourceStopped.
func (h *HTTPSource) Inject(data []byte) error {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()

	if h.closed {
		return ErrSourceStopped
	}
	select {
	case h.queue <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

func (h *HTTPSource) isClosed() bool {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()
	return h.closed
}

func (h *HTTPSource) rejectInput(w http.ResponseWriter, err error) {
	msg := "queue full, try again"
	if errors.Is(err, ErrSourceStopped) {
		msg = "source stopped"
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": msg})
}

func (h *HTTPSource) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.AuthToken)) != 1 {
			h.logger.Warn("unauthorized request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty audio"})
		return
	}

	if err := h.Inject(data); err != nil {
		h.rejectInput(w, err)
		return
	}
	h.logger.Info("received audio via HTTP", "bytes", len(data))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "bytes": len(data)})
}

// handleText takes a plain text body, or {"text": "..."} with a JSON
// content type.
func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTextBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	text := string(data)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
		text = body.Text
	}

	text = strings.TrimSpace(text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty text"})
		return
	}

	if err := h.Inject(domain.TextCommand(text)); err != nil {
		h.rejectInput(w, err)
		return
	}
	h.logger.Info("received text via HTTP", "text", text)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received", "text": text})
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()

	status, code := "ok", http.StatusOK
	if !running {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"running":    running,
		"queue_size": len(h.queue),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
