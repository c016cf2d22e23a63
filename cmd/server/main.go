// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the CityPulse server, an HTTP
// service that answers natural-language questions about San Francisco
// emergency and crisis data.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/citypulse/citypulse/internal/agent"
	"github.com/citypulse/citypulse/internal/api"
	"github.com/citypulse/citypulse/internal/buildinfo"
	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/datasync"
	"github.com/citypulse/citypulse/internal/logging"
	"github.com/citypulse/citypulse/internal/observability"
	"github.com/citypulse/citypulse/internal/provider"
	"github.com/citypulse/citypulse/internal/report"
	"github.com/citypulse/citypulse/internal/store"
)

// Build-time variables, injected via ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.Setup()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// .env is optional; environment overrides still apply without it.
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := logging.ConfigureOutput(cfg.LoggingToFile); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	log.Infof("CityPulse %s (commit %s, built %s)", Version, Commit, BuildDate)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	metrics := observability.NewMetrics()

	sqlgen := provider.NewClient(provider.Options{
		APIKey:        cfg.Provider.APIKey,
		BaseURL:       cfg.Provider.BaseURL,
		UsePlayground: cfg.Provider.UsePlayground,
		DatafileID:    cfg.Provider.DatafileID,
		Timeout:       cfg.Provider.Timeout,
		Metrics:       metrics,
	})
	if !sqlgen.HasAPIKey() {
		log.Warn("No provider API key configured, all questions will use local fallback templates")
	}

	analyzer := agent.New(db, sqlgen, metrics)
	reports := report.NewGenerator(metrics)

	syncSvc := datasync.NewService(db, datasync.Options{Metrics: metrics})
	scheduler := datasync.NewScheduler(syncSvc, cfg.Sync.Interval, nil, metrics)
	if cfg.Sync.Enabled {
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Hot-reload mode changes without a restart. Other settings still
	// require one.
	watcher := config.NewWatcher(*configPath, func(updated *config.Config) {
		if updated.Provider.UsePlayground {
			sqlgen.SwitchToPlayground(updated.Provider.DatafileID)
		} else {
			sqlgen.SwitchToDirect()
		}
	})
	if err := watcher.Start(); err != nil {
		log.Warnf("Config watcher unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(cfg, analyzer, sqlgen, db, scheduler, reports)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
