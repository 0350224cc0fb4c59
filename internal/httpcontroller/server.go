// Package httpcontroller serves the measurement dashboard and the JSON API.
// It is the presentation boundary: it triggers measurements and renders their
// outcomes, nothing more.
package httpcontroller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/logging"
	"github.com/nstokely/echotube/internal/measurement"
	"github.com/nstokely/echotube/internal/observability"
)

// MeasurementService is the part of the measurement manager the web layer
// needs.
type MeasurementService interface {
	Start(ctx context.Context) error
	InFlight() bool
	PulseAvailable() bool
	Latest() *measurement.Outcome
}

// Server is the HTTP presentation server.
type Server struct {
	Echo     *echo.Echo
	settings *conf.Settings
	service  MeasurementService
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates the HTTP server and registers all routes. metrics may be nil.
func New(settings *conf.Settings, service MeasurementService, metrics *observability.Metrics) *Server {
	s := &Server{
		Echo:     echo.New(),
		settings: settings,
		service:  service,
		metrics:  metrics,
		logger:   logging.ForService("httpcontroller"),
	}

	s.Echo.HideBanner = true
	s.Echo.Use(middleware.Recover())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleIndex)
	s.Echo.POST("/api/v1/measurements", s.handleStartMeasurement)
	s.Echo.GET("/api/v1/measurements/latest", s.handleLatestMeasurement)
	s.Echo.GET("/api/v1/status", s.handleStatus)

	if s.metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Start listens on the configured port and blocks until shutdown.
func (s *Server) Start() error {
	addr := ":" + s.settings.WebServer.Port
	s.logger.Info("web server listening", "addr", addr)
	if err := s.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
