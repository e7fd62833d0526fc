package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-matrix/internal/adapter/matrix"
	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FrameSource exposes the most recently shown frame.
type FrameSource interface {
	PNG() ([]byte, error)
	Frame() (domain.Frame, error)
}

// Option configures optional routes.
type Option func(*http.ServeMux)

// WithFrames adds GET /frame.png and GET /frame.json.
func WithFrames(src FrameSource) Option {
	return func(mux *http.ServeMux) {
		mux.HandleFunc("GET /frame.png", handleFramePNG(src))
		mux.HandleFunc("GET /frame.json", handleFrameJSON(src))
	}
}

// WithHandler mounts an additional handler on the given pattern.
func WithHandler(pattern string, h http.Handler) Option {
	return func(mux *http.ServeMux) {
		mux.Handle(pattern, h)
	}
}

// Server exposes health, readiness, metrics and frame preview endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics routes
// plus any optional routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	for _, opt := range opts {
		opt(mux)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// StartBackground serves on a new goroutine. A failure other than graceful
// shutdown is logged and then reported through onFailure.
func (s *Server) StartBackground(onFailure func()) {
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
			onFailure()
		}
	}()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleFramePNG(src FrameSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := src.PNG()
		if err != nil {
			writeFrameError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(data) //nolint:errcheck,gosec // client went away
	}
}

func handleFrameJSON(src FrameSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		frame, err := src.Frame()
		if err != nil {
			writeFrameError(w, err)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, frame)
	}
}

func writeFrameError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, matrix.ErrNoFrame) {
		status = http.StatusServiceUnavailable
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
