package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpHandlers "github.com/pharmastock/core/internal/adapters/http"
	"github.com/pharmastock/core/internal/infrastructure/config"
	"github.com/pharmastock/core/internal/infrastructure/logger"
	"github.com/pharmastock/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	logger    *logger.Logger
	inventory ports.InventoryService
}

// New creates a new server instance. The inventory must be initialized by
// the caller; the server only reads and mutates it.
func New(cfg *config.Config, inventory ports.InventoryService, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	renderer, err := httpHandlers.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer
	e.Validator = httpHandlers.NewValidator()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	inventoryHandler := httpHandlers.NewInventoryHandler(inventory, appLogger)

	server := &Server{
		echo:      e,
		config:    cfg,
		logger:    appLogger.WithComponent("server"),
		inventory: inventory,
	}

	server.setupMiddleware()

	server.setupRoutes(inventoryHandler)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(inventoryHandler *httpHandlers.InventoryHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Inventory view
	s.echo.GET("/", inventoryHandler.ShowInventory)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	medications := v1.Group("/medications")
	medications.GET("", inventoryHandler.ListMedications)
	medications.POST("", inventoryHandler.CreateMedication)
	medications.GET("/summary", inventoryHandler.GetSummary)
	medications.DELETE("/:batchNumber", inventoryHandler.DeleteMedication)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	medications := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pharma_inventory_medications",
			Help: "Number of medication records in the inventory",
		},
		func() float64 { return float64(s.inventory.GetTotalMedications()) },
	)

	units := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pharma_inventory_units",
			Help: "Sum of quantities over all medication records",
		},
		func() float64 { return float64(s.inventory.GetTotalUnits()) },
	)

	initialized := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pharma_inventory_initialized",
			Help: "1 when the inventory store is initialized",
		},
		func() float64 {
			if s.inventory.IsInitialized() {
				return 1
			}
			return 0
		},
	)

	registry.MustRegister(requestsTotal, requestDuration, medications, units, initialized)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if s.inventory.IsInitialized() {
		checks["inventory"] = map[string]interface{}{
			"status":            "ok",
			"total_medications": s.inventory.GetTotalMedications(),
			"total_units":       s.inventory.GetTotalUnits(),
		}
	} else {
		status = "error"
		checks["inventory"] = map[string]interface{}{
			"status": "error",
			"error":  "inventory store not initialized",
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if !s.inventory.IsInitialized() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "inventory_not_initialized",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server. It blocks until the server stops and
// returns http.ErrServerClosed after a graceful Shutdown.
func (s *Server) Start(address string) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven directly, e.g. by httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		if errors.As(err, &he) {
			code = he.Code
			msg = he.Message
			if m, ok := he.Message.(string); ok {
				msg = httpHandlers.MessageResponse{Message: m}
			}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if errors.As(err, &ve) {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": ve.Error()}
		} else {
			msg = httpHandlers.MessageResponse{Message: http.StatusText(code)}
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("Server error", "error", err, "status", code, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
