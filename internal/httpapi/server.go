// Package httpapi exposes the engine over HTTP with a uniform JSON
// envelope.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hupe1980/agentgraph/engine"
	"github.com/hupe1980/agentgraph/logging"
)

// Options configures a Server.
type Options struct {
	// RequestTimeout bounds agent invocations and transcript analyses (0 = none).
	RequestTimeout time.Duration

	Logger logging.Logger
}

// Server serves the engine.
type Server struct {
	echo   *echo.Echo
	engine *engine.Engine
	opts   Options
	logger logging.Logger
}

// NewServer builds the echo instance and registers all routes.
func NewServer(eng *engine.Engine, optFns ...func(o *Options)) *Server {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		echo:   echo.New(),
		engine: eng,
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError

	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("http.request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"duration_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	s.RegisterRoutes(s.echo)

	return s
}

// RegisterRoutes registers routes with e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.GET("/agents", s.ListAgents)
	v1.POST("/agents/invoke", s.Invoke)
	v1.POST("/agents/:agent_id/invoke", s.Invoke)
	v1.GET("/models", s.ListModels)
	v1.POST("/transcripts/analyze", s.AnalyzeTranscript)
	v1.GET("/threads/:thread_id", s.GetThread)
	v1.DELETE("/threads/:thread_id", s.DeleteThread)
	v1.DELETE("/runs/:run_id", s.CancelRun)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("http.server.start", "addr", addr)

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http.server.shutdown")
	return s.echo.Shutdown(ctx)
}

// handleError renders echo errors (unknown routes, bad methods, panics)
// in the envelope.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "unexpected error"
	kind := KindInternal

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = http.StatusText(he.Code)
		if status == http.StatusNotFound {
			kind = KindNotFound
		} else if status < http.StatusInternalServerError {
			kind = KindValidation
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("http.request.error", "path", c.Path(), "status", status, "error", err.Error())
	}

	if err := failure(c, status, message, ErrorDetails{Kind: kind}); err != nil {
		s.logger.Error("http.response.error", "error", err.Error())
	}
}
