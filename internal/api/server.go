// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the CityPulse analysis pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/citypulse/citypulse/internal/agent"
	"github.com/citypulse/citypulse/internal/buildinfo"
	"github.com/citypulse/citypulse/internal/config"
)

// Analyzer runs one complete analysis.
type Analyzer interface {
	Analyze(ctx context.Context, question string) (*agent.Result, error)
}

// ModeSwitcher controls and reports the SQL provider mode.
type ModeSwitcher interface {
	Mode() string
	HasAPIKey() bool
	SwitchToPlayground(datafileID string)
	SwitchToDirect()
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SyncStatus reports whether the background sync loop is active.
type SyncStatus interface {
	Running() bool
}

// Reporter renders an analysis result as a PDF document.
type Reporter interface {
	Generate(result *agent.Result) ([]byte, error)
}

// Server is the CityPulse HTTP server.
type Server struct {
	cfg      *config.Config
	analyzer Analyzer
	provider ModeSwitcher
	db       Pinger
	sync     SyncStatus
	reports  Reporter

	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer wires the HTTP layer. The sync status and reporter may be nil;
// the corresponding endpoints then report accordingly.
func NewServer(cfg *config.Config, analyzer Analyzer, provider ModeSwitcher, db Pinger, sync SyncStatus, reports Reporter) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		provider: provider,
		db:       db,
		sync:     sync,
		reports:  reports,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(requestIDMiddleware())
	s.engine.Use(requestLogMiddleware())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/schema", s.handleSchema)
		api.GET("/status", s.handleStatus)
		api.GET("/health", s.handleHealth)
		api.GET("/demo-queries", s.handleDemoQueries)
		api.POST("/switch-mode", s.handleSwitchMode)
		api.POST("/generate-pdf", s.handleGeneratePDF)
	}
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("CityPulse %s listening on %s", buildinfo.Version, addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api: server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown failed: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}
