// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package datasync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	calls  atomic.Int64
	synced chan struct{}
}

func newCountingSyncer() *countingSyncer {
	return &countingSyncer{synced: make(chan struct{}, 16)}
}

func (c *countingSyncer) SyncAll(context.Context) error {
	c.calls.Add(1)
	c.synced <- struct{}{}
	return nil
}

func waitForSync(t *testing.T, s *countingSyncer) {
	t.Helper()
	select {
	case <-s.synced:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sync")
	}
}

func TestSchedulerRunsImmediatelyOnStart(t *testing.T) {
	syncer := newCountingSyncer()
	clock := clockwork.NewFakeClock()
	s := NewScheduler(syncer, time.Minute, clock, nil)

	s.Start()
	defer s.Stop()

	waitForSync(t, syncer)
	assert.Equal(t, int64(1), syncer.calls.Load())
	assert.True(t, s.Running())
}

func TestSchedulerTicks(t *testing.T) {
	syncer := newCountingSyncer()
	clock := clockwork.NewFakeClock()
	s := NewScheduler(syncer, time.Minute, clock, nil)

	s.Start()
	defer s.Stop()
	waitForSync(t, syncer)

	// Wait until the loop is blocked on the ticker before advancing.
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Minute)
	waitForSync(t, syncer)

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Minute)
	waitForSync(t, syncer)

	assert.Equal(t, int64(3), syncer.calls.Load())
}

func TestSchedulerStop(t *testing.T) {
	syncer := newCountingSyncer()
	clock := clockwork.NewFakeClock()
	s := NewScheduler(syncer, time.Minute, clock, nil)

	s.Start()
	waitForSync(t, syncer)
	s.Stop()

	assert.False(t, s.Running())
	calls := syncer.calls.Load()

	// Advancing after Stop produces no further syncs.
	clock.Advance(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, syncer.calls.Load())
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	syncer := newCountingSyncer()
	s := NewScheduler(syncer, time.Hour, clockwork.NewFakeClock(), nil)

	s.Stop() // not running, no-op

	s.Start()
	s.Start() // already running, no-op
	waitForSync(t, syncer)

	s.Stop()
	s.Stop() // already stopped, no-op
	assert.Equal(t, int64(1), syncer.calls.Load())
}
