// Package api serves wizard sessions over HTTP alongside the health, readiness
// and metrics endpoints.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"sort"
	"time"

	"document-workflow/internal/common/config"
	"document-workflow/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	router *gin.Engine
	server *http.Server
	checks map[string]ReadinessCheck
	logger logger.Logger
}

func NewServer(cfg config.ServerConfig, handlers *Handlers, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(gin.Recovery(), Metrics(), RequestLogger(log), Timeout(30*time.Second))

	s := &Server{
		router: router,
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		checks: checks,
		logger: log,
	}
	s.routes(handlers)
	return s
}

func (s *Server) routes(h *Handlers) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
	})
	s.router.GET("/ready", s.ready)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.POST("/sessions", h.OpenSession)

	sessions := v1.Group("/sessions/:id", h.loadSession)
	{
		sessions.GET("", h.GetSession)
		sessions.PATCH("", h.UpdateDraft)
		sessions.DELETE("", h.CancelSession)
		sessions.PUT("/internal", h.SetInternal)
		sessions.POST("/entities/:field/resolve", h.ResolveEntity)
		sessions.POST("/entities/:field", h.SaveEntity)
		sessions.PUT("/entities/:field", h.SaveEntity)
		sessions.PUT("/postal-code", h.SetPostalCode)
		sessions.POST("/address/select", h.SelectAddress)
		sessions.GET("/document-types", h.DocumentTypes)
		sessions.PUT("/document-type", h.SelectDocumentType)
		sessions.PUT("/parameters/:paramId", h.SetParameter)
		sessions.POST("/attachments", h.AddAttachments)
		sessions.DELETE("/attachments/:index", h.RemoveAttachment)
		sessions.PUT("/attachments/:index/description", h.DescribeAttachment)
		sessions.POST("/next", h.Next)
		sessions.POST("/back", h.Back)
		sessions.POST("/submit", h.Submit)
		sessions.GET("/notifications", h.Notifications)
	}
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results, "time": time.Now().Format(time.RFC3339)})
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("session API listening", map[string]interface{}{"address": s.server.Addr})
	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
