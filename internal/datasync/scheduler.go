// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package datasync

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/citypulse/citypulse/internal/observability"
)

// Syncer runs one full sync pass.
type Syncer interface {
	SyncAll(ctx context.Context) error
}

// Scheduler runs the sync on a fixed interval. The process owns the
// instance and controls its lifecycle; there is no package-level state.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	clock    clockwork.Clock
	metrics  *observability.Metrics

	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// NewScheduler creates a scheduler. A nil clock uses the real clock; tests
// inject a fake one.
func NewScheduler(syncer Syncer, interval time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		clock:    clock,
		metrics:  metrics,
	}
}

// Start launches the sync loop. The first sync runs immediately; subsequent
// runs fire on the interval. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	if s.metrics != nil {
		s.metrics.SyncRunning.Set(1)
	}

	go s.loop(s.done, s.stopped)
	log.Infof("Data sync scheduler started (interval: %s)", s.interval)
}

// Stop halts the loop and waits for it to exit. Safe to call when not
// running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done, stopped := s.done, s.stopped
	s.mu.Unlock()

	close(done)
	<-stopped
	if s.metrics != nil {
		s.metrics.SyncRunning.Set(0)
	}
	log.Info("Data sync scheduler stopped")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	s.runOnce()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := s.syncer.SyncAll(ctx); err != nil {
		log.Warnf("Scheduled sync completed with errors: %v", err)
	}
}
