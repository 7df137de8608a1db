package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonny/sheetbot/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/sheetbot/pkg/apierror"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	Development     bool
	Tracing         bool
	ServiceName     string
}

// Server serves the interactions endpoint with graceful shutdown.
type Server struct {
	cfg       ServerConfig
	handler   http.Handler
	status    http.HandlerFunc
	rateLimit func(http.Handler) http.Handler
	logger    *slog.Logger
	srv       *http.Server
}

// NewServer wires handler behind the middleware stack. status serves GET /;
// rateLimit may be nil.
func NewServer(
	cfg ServerConfig,
	handler http.Handler,
	status http.HandlerFunc,
	rateLimit func(http.Handler) http.Handler,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		handler:   handler,
		status:    status,
		rateLimit: rateLimit,
		logger:    logger,
	}
}

// Routes builds the router. Route layout:
//
//	POST    /  - signed interaction
//	GET     /  - JSON health status
//	OPTIONS /  - CORS
//
// Anything else is answered with 405.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.SecurityContext)
	r.Use(middleware.Logging(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(s.cfg.Development))
	r.Use(middleware.CORS(s.cfg.AllowedOrigins))
	if s.cfg.Tracing {
		name := s.cfg.ServiceName
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, name)
		})
	}

	notAllowed := func(w http.ResponseWriter, _ *http.Request) {
		apierror.Write(w, apierror.MethodNotAllowed())
	}
	r.MethodNotAllowed(notAllowed)
	r.NotFound(notAllowed)

	r.Get("/", s.status)
	r.Options("/", middleware.Options(s.cfg.AllowedOrigins))
	if s.rateLimit != nil {
		r.With(s.rateLimit).Post("/", s.handler.ServeHTTP)
	} else {
		r.Post("/", s.handler.ServeHTTP)
	}

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("interactions server listening", "port", s.cfg.Port)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("interactions server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
