// Package server exposes the session engine over HTTP for the web frontend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finsage/internal/advisor"
	"finsage/internal/config"
	"finsage/internal/engine"
	"finsage/internal/logging"
)

// Server wraps the gin engine and its http.Server.
type Server struct {
	controller *engine.Controller
	catalog    *advisor.Catalog
	logger     logging.Logger

	engine     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
}

// New builds the HTTP server around an assembled session controller.
func New(cfg config.ServerConfig, controller *engine.Controller, catalog *advisor.Catalog, logger logging.Logger, registry *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	if catalog == nil {
		catalog = advisor.Default()
	}
	s := &Server{
		controller: controller,
		catalog:    catalog,
		logger:     logging.OrNop(logger),
		engine:     router,
		startTime:  time.Now(),
	}
	s.registerRoutes(registry)

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.engine.GET("/health", s.handleHealth)
	if registry != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/advisors", s.handleListAdvisors)
		v1.GET("/session/state", s.handleState)

		v1.POST("/session/advisor", s.handleSelectAdvisor)
		v1.POST("/session/option", s.handleSelectOption)
		v1.POST("/session/retry", s.handleRetry)
		v1.POST("/session/chat", s.handleChat)
		v1.POST("/session/report", s.handleReport)
		v1.POST("/session/restart", s.handleRestart)

		v1.POST("/profile/financials", s.handleUpdateFinancials)
		v1.POST("/achievements/dismiss", s.handleDismissAchievement)
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"session": s.controller.Identity().SessionID,
	})
}
