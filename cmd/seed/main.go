// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main seeds the CityPulse database with generated sample data, for
// local development and demos without live data feeds.
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/logging"
	"github.com/citypulse/citypulse/internal/store"
)

func main() {
	logging.Setup()

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	police := flag.Int("police", 0, "number of police calls to generate (0 = default)")
	fire := flag.Int("fire", 0, "number of fire/EMS calls to generate (0 = default)")
	cases := flag.Int("cases", 0, "number of 311 cases to generate (0 = default)")
	disasters := flag.Int("disasters", 0, "number of disaster events to generate (0 = default)")
	seed := flag.Int64("seed", 0, "random seed (0 = default)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	opts := store.DefaultSeedOptions()
	if *police > 0 {
		opts.PoliceCalls = *police
	}
	if *fire > 0 {
		opts.FireCalls = *fire
	}
	if *cases > 0 {
		opts.Cases311 = *cases
	}
	if *disasters > 0 {
		opts.DisasterEvents = *disasters
	}
	if *seed != 0 {
		opts.Seed = *seed
	}

	if err := db.Seed(context.Background(), opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Infof("Seeded %s with %d police calls, %d fire/EMS calls, %d 311 cases, %d disaster events",
		cfg.DatabasePath, opts.PoliceCalls, opts.FireCalls, opts.Cases311, opts.DisasterEvents)
}
