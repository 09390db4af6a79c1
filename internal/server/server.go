package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nao1215/wikiscope/internal/database"
	"github.com/nao1215/wikiscope/internal/model"
	"github.com/nao1215/wikiscope/internal/pipeline"
	"github.com/nao1215/wikiscope/internal/suggest"
)

// DefaultShutdownTimeout bounds graceful shutdown in Start.
const DefaultShutdownTimeout = 10 * time.Second

// Store persists finished lookups. *database.LookupDB implements this interface.
type Store interface {
	SaveLookup(ctx context.Context, lookup *model.Lookup) error
	GetLookupByID(ctx context.Context, id string) (*model.Lookup, error)
	GetLookupHistoryWithMetadata(ctx context.Context, title string) ([]database.LookupMetadata, error)
}

// Server is the HTTP API.
type Server struct {
	echo     *echo.Echo
	source   suggest.Source
	pipeline *pipeline.Pipeline
	store    Store
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the history routes and saves every finished lookup.
func WithStore(store Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger for request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server answering suggestions from source and running
// lookups on p.
func New(source suggest.Source, p *pipeline.Pipeline, opts ...Option) *Server {
	s := &Server{
		source:   source,
		pipeline: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	e.HTTPErrorHandler = s.handleError

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	api := e.Group("/api")
	api.GET("/suggest", s.suggest)
	api.GET("/lookup", s.lookup)
	api.GET("/lookup/stream", s.stream)
	api.GET("/lookups/:id", s.storedLookup)
	api.GET("/history", s.history)

	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	s.echo = e
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "address", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http api: %w", err)
	}
	return nil
}

// errorResponse is the JSON body of every error.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	case errors.Is(err, model.ErrEmptyQuery), errors.Is(err, ErrMissingTitle):
		code = http.StatusBadRequest
	case errors.Is(err, ErrHistoryDisabled), errors.Is(err, ErrLookupNotFound):
		code = http.StatusNotFound
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "method", req.Method, "path", req.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "status", code, "method", req.Method, "path", req.URL.Path, "error", err)
	}

	if !c.Response().Committed {
		_ = c.JSON(code, errorResponse{Error: msg}) //nolint:errcheck // nothing left to report to
	}
}
