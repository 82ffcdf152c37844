package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/server/handlers"
	"github.com/tgifford-usc/CurrentWeather/internal/server/middlewares"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/widget"
	"github.com/tgifford-usc/CurrentWeather/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	engine   *gin.Engine
	server   *http.Server
	cfg      *config.Config
	registry *widget.Registry
	weather  service.WeatherService
	metrics  *handlers.MetricsHandler
	httpMW   *middlewares.MetricsMiddleware
	logger   *zap.Logger
	tele     *telemetry.Telemetry
}

// NewServer builds the HTTP host around the given forecast client.
func NewServer(cfg *config.Config, weather service.WeatherService, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	metrics := handlers.NewMetricsHandler(logger)

	registry := widget.NewRegistry(&widget.Factory{
		Weather:    weather,
		Geolocator: widget.NewGeolocator(cfg.Widget.Geolocation),
		Metrics:    metrics,
		Logger:     logger,
		Tele:       tele,
		Options:    widget.OptionsFromConfig(cfg.Widget, cfg.Weather),
	})

	httpMW := middlewares.NewMetricsMiddleware(logger, tele)
	metrics.SetHTTPMetricsProvider(httpMW)
	metrics.SetSessionCounter(registry)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, time.RFC3339, true, "/health/live", "/health/ready", "/metrics"))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(httpMW.Handler())

	s := &Server{
		engine:   engine,
		cfg:      cfg,
		registry: registry,
		weather:  weather,
		metrics:  metrics,
		httpMW:   httpMW,
		logger:   logger,
		tele:     tele,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Business endpoints
	s.engine.GET("/weather", handlers.NewWeatherHandler(s.weather, s.metrics, s.logger).GetWeather)

	widgets := handlers.NewWidgetHandler(s.registry, s.logger)
	group := s.engine.Group("/widgets")
	group.POST("", widgets.Create)
	group.GET("/:id", widgets.Get)
	group.DELETE("/:id", widgets.Delete)
	group.POST("/:id/geolocate", widgets.Geolocate)
	group.PUT("/:id/coordinates", widgets.UpdateCoordinates)
	group.POST("/:id/click", widgets.Click)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, s.registry)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", s.metrics.ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.Close()

	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}
