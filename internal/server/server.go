// Package server wires the gin router, middleware and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/vmoraru/invoice-extraction-service/internal/config"
	"github.com/vmoraru/invoice-extraction-service/internal/handler"
	"github.com/vmoraru/invoice-extraction-service/internal/middleware"
	"github.com/vmoraru/invoice-extraction-service/internal/model"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// Handlers groups the route handlers the server mounts.
type Handlers struct {
	Extract  *handler.ExtractHandler
	Import   *handler.ImportHandler
	Currency *handler.CurrencyHandler
}

// Server is the HTTP server for the invoice extraction service.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
}

// NewServer creates and configures a server instance with all routes and
// middleware mounted.
func NewServer(cfg *config.Config, handlers Handlers, logger *slog.Logger) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.RequestLogger(logger))

	server := &Server{
		router: router,
		config: cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	server.setupRoutes(handlers)

	return server
}

// GetRouter returns the gin router (used by handler tests).
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// setupRoutes mounts every route with its auth and rate-limit middleware.
func (s *Server) setupRoutes(handlers Handlers) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.HealthResponse{Status: "ok", Version: Version})
	})

	// Swagger UI at /api-docs/index.html
	s.router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})

	auth := middleware.Auth(s.config.JWTSecret)
	extractLimit := middleware.NewRateLimiter(s.config.ExtractRateLimit).Middleware()
	pricingLimit := middleware.NewRateLimiter(s.config.PricingRateLimit).Middleware()

	v1 := s.router.Group("/v1")
	{
		v1.POST("/extract", auth, extractLimit, handlers.Extract.Extract)

		v1.POST("/invoice/preview-pricing", auth, pricingLimit, handlers.Import.PreviewPricing)
		v1.POST("/invoice/import", auth, pricingLimit, handlers.Import.Import)
		v1.GET("/pricing/constants", auth, handlers.Import.PricingConstants)

		v1.GET("/currency/rates", auth, handlers.Currency.GetExchangeRates)
	}
}

// Start begins listening for requests and blocks until an interrupt signal
// triggers graceful shutdown.
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on port %d", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited gracefully")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
