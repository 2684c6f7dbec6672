// Package server provides the daemon's HTTP surface.
//
// It wraps an Echo router with a health endpoint, Prometheus metrics,
// and read-only access to stored diagnostic results, with
// context-aware graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fyrsmithlabs/doctord/internal/config"
	"github.com/fyrsmithlabs/doctord/internal/services"
	"github.com/fyrsmithlabs/doctord/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	config   *config.Config
	services services.Registry
	echo     *echo.Echo
}

// HealthResponse is the JSON response for the /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Providers int    `json:"providers"`
	Builds    int    `json:"builds"`
}

// NewServer creates a new HTTP server with the given configuration.
//
// The server includes:
//   - Standard middleware (recover, request ID)
//   - Health check endpoint at GET /health
//   - Prometheus metrics at GET /metrics
//   - Result queries at GET /results and GET /results/:job/:number
func NewServer(cfg *config.Config, svc services.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		config:   cfg,
		services: svc,
		echo:     e,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if reg := s.services.Metrics(); reg != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	s.echo.GET("/results", s.handleListResults)
	s.echo.GET("/results/:job/:number", s.handleGetResults)
}

func (s *Server) handleHealth(c echo.Context) error {
	response := HealthResponse{
		Status:  "ok",
		Service: s.config.Telemetry.ServiceName,
	}
	if providers := s.services.Providers(); providers != nil {
		response.Providers = providers.Len()
	}
	if results := s.services.Store(); results != nil {
		if keys, err := results.Keys(c.Request().Context()); err == nil {
			response.Builds = len(keys)
		}
	}
	return c.JSON(http.StatusOK, response)
}

// handleListResults returns the build keys that have attached result
// sets.
func (s *Server) handleListResults(c echo.Context) error {
	keys, err := s.services.Store().Keys(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"builds": keys})
}

// handleGetResults returns the result set attached to one build.
func (s *Server) handleGetResults(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "build number must be a positive integer")
	}

	key := store.BuildKey(c.Param("job"), number)
	set, err := s.services.Store().Get(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no results for build "+key)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, set)
}

// Start starts the HTTP server and blocks until the context is
// cancelled, then shuts down gracefully within the configured
// timeout. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.config.Server.ShutdownTimeout(),
		)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying Echo instance for registering
// additional routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
