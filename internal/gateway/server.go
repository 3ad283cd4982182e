package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/logger"
)

const (
	// DefaultMaxBodyBytes leaves room for a base64 encoded resume.
	DefaultMaxBodyBytes = 15 << 20
	DefaultTimeout      = 30 * time.Second

	shutdownTimeout = 10 * time.Second
)

// ServerOptions tune the HTTP handler.
type ServerOptions struct {
	// RequestsPerSecond limits accepted calls globally. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
	// Timeout bounds a single upstream call.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Server serves gateway actions backed by an ai.Gateway.
type Server struct {
	gateway ai.Gateway
	limiter *rate.Limiter
	maxBody int64
	timeout time.Duration
	logger  *zap.Logger
}

func NewServer(gateway ai.Gateway, opts ServerOptions) *Server {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Server{
		gateway: gateway,
		limiter: rate.NewLimiter(limit, opts.Burst),
		maxBody: opts.MaxBodyBytes,
		timeout: opts.Timeout,
		logger:  logger.Component(opts.Logger, "gateway"),
	}
}

// Handler routes the gateway endpoint and the health check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleGateway)
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve gateway: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown gateway: %w", err)
	}
	return nil
}

func (s *Server) handleGateway(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too Many Requests")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Could not read request body.")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, "Request body is empty.")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	log := s.logger.With(zap.String("action", req.Action))
	start := time.Now()

	var result []internship.Internship
	switch req.Action {
	case ai.ActionGenerate:
		result, err = s.gateway.Generate(ctx)
	case ai.ActionRecommend:
		if req.Payload == nil || req.Payload.UserProfile == nil || req.Payload.Internships == nil {
			writeError(w, http.StatusBadRequest, "Missing 'userProfile' or 'internships' in payload for 'recommend' action.")
			return
		}
		result, err = s.gateway.Recommend(ctx, req.Payload.UserProfile, req.Payload.Internships)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid action: %s", req.Action))
		return
	}

	if err != nil {
		log.Error("gateway action failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, fmt.Sprintf("Server error: %v", err))
		return
	}

	if result == nil {
		result = []internship.Internship{}
	}

	log.Info("gateway action completed", zap.Int("count", len(result)), zap.Duration("took", time.Since(start)))
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
