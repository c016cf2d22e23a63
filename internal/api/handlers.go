// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/citypulse/citypulse/internal/agent"
	"github.com/citypulse/citypulse/internal/buildinfo"
	"github.com/citypulse/citypulse/internal/store"
)

// AnalyzeRequest is the body of POST /api/analyze and /api/generate-pdf.
type AnalyzeRequest struct {
	Question string `json:"question" binding:"required"`
}

// ModeRequest is the body of POST /api/switch-mode.
type ModeRequest struct {
	Mode       string `json:"mode" binding:"required"`
	DatafileID string `json:"datafile_id,omitempty"`
}

// demoQueries are shown in the UI as one-click examples.
var demoQueries = []string{
	"How many police calls are in the database?",
	"Which neighborhood has the most fire/EMS calls?",
	"Show me all disaster events in the past 24 hours",
	"What is the total number of 311 cases?",
	"Which neighborhoods have the highest shelter waitlist counts?",
	"Count the number of incidents by call type in Tenderloin",
	"What are the top 5 neighborhoods with the most emergency calls?",
	"Show me all hazmat incidents with their severity levels",
	"How many neighborhoods are in the database?",
	"What is the stress score for each neighborhood (police calls + 1.2 * fire calls)?",
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "CityPulse",
		"status":  "operational",
		"version": buildinfo.Version,
		"mode":    s.provider.Mode(),
	})
}

// handleAnalyze handles POST /api/analyze.
//
// Response:
//   - 200: Full analysis result
//   - 400: Invalid body, or generated SQL failed to execute (structured payload)
//   - 500: Unexpected failure
func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), req.Question)
	if err != nil {
		var qerr *agent.QueryError
		if errors.As(err, &qerr) {
			c.JSON(http.StatusBadRequest, qerr)
			return
		}
		log.Errorf("Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSchema(c *gin.Context) {
	c.JSON(http.StatusOK, store.DatabaseSchema())
}

func (s *Server) handleStatus(c *gin.Context) {
	syncRunning := false
	if s.sync != nil {
		syncRunning = s.sync.Running()
	}
	c.JSON(http.StatusOK, gin.H{
		"provider_mode":      s.provider.Mode(),
		"api_key_configured": s.provider.HasAPIKey(),
		"sync_running":       syncRunning,
		"database_path":      s.cfg.DatabasePath,
		"version":            buildinfo.Version,
	})
}

// handleHealth checks database connectivity.
//
// Response:
//   - 200: database reachable
//   - 503: database unreachable
func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		err := s.db.Ping(ctx)
		cancel()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"database": "error",
				"agent":    "degraded",
				"error":    err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"database":           "connected",
		"agent":              "ready",
		"provider_mode":      s.provider.Mode(),
		"api_key_configured": s.provider.HasAPIKey(),
	})
}

func (s *Server) handleDemoQueries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"queries": demoQueries})
}

// handleSwitchMode handles POST /api/switch-mode. When a management key is
// configured, the X-Management-Key header must match it.
func (s *Server) handleSwitchMode(c *gin.Context) {
	if !s.authorizeManagement(c) {
		return
	}

	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}

	switch req.Mode {
	case "playground":
		s.provider.SwitchToPlayground(req.DatafileID)
	case "direct":
		s.provider.SwitchToDirect()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown mode %q", req.Mode)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Switched to " + req.Mode + " mode",
		"current_mode": s.provider.Mode(),
	})
}

// handleGeneratePDF handles POST /api/generate-pdf: runs the analysis and
// returns the rendered report.
func (s *Server) handleGeneratePDF(c *gin.Context) {
	if s.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report generation not available"})
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), req.Question)
	if err != nil {
		var qerr *agent.QueryError
		if errors.As(err, &qerr) {
			c.JSON(http.StatusBadRequest, qerr)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	pdf, err := s.reports.Generate(result)
	if err != nil {
		log.Errorf("PDF generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}

	filename := fmt.Sprintf("citypulse-report-%s.pdf", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// authorizeManagement validates the management key header against the
// configured bcrypt hash. With no key configured, every caller is allowed.
func (s *Server) authorizeManagement(c *gin.Context) bool {
	if s.cfg.ManagementKey == "" {
		return true
	}
	supplied := c.GetHeader("X-Management-Key")
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.ManagementKey), []byte(supplied)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid management key"})
		return false
	}
	return true
}
