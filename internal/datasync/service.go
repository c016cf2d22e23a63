// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package datasync

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/citypulse/citypulse/internal/observability"
	"github.com/citypulse/citypulse/internal/store"
)

// Upserter is the slice of the store the sync service writes through.
type Upserter interface {
	UpsertPoliceCall(ctx context.Context, c *store.PoliceCall) error
	UpsertFireCall(ctx context.Context, c *store.FireCall) error
	UpsertCase311(ctx context.Context, c *store.Case311) error
	UpsertDisasterEvent(ctx context.Context, e *store.DisasterEvent) error
}

// Service fetches external datasets and writes them to the database.
type Service struct {
	db          Upserter
	httpClient  *http.Client
	metrics     *observability.Metrics
	sodaBaseURL string
	usgsFeedURL string
	limit       int
}

// Options configures a sync Service. Zero values take defaults.
type Options struct {
	HTTPTimeout time.Duration
	SODABaseURL string
	USGSFeedURL string
	Limit       int
	Metrics     *observability.Metrics
}

// NewService creates a sync service writing through db.
func NewService(db Upserter, opts Options) *Service {
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	sodaBase := opts.SODABaseURL
	if sodaBase == "" {
		sodaBase = defaultSODABaseURL
	}
	usgsURL := opts.USGSFeedURL
	if usgsURL == "" {
		usgsURL = defaultUSGSFeedURL
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	return &Service{
		db:          db,
		httpClient:  &http.Client{Timeout: timeout},
		metrics:     opts.Metrics,
		sodaBaseURL: sodaBase,
		usgsFeedURL: usgsURL,
		limit:       limit,
	}
}

// SyncAll runs every fetcher in sequence. A failing source is logged and
// counted but does not stop the remaining sources; the first error is
// returned after all sources have been attempted.
func (s *Service) SyncAll(ctx context.Context) error {
	sources := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{"police", s.syncPolice},
		{"fire", s.syncFire},
		{"cases311", s.sync311},
		{"earthquakes", s.syncEarthquakes},
	}

	var firstErr error
	for _, src := range sources {
		count, err := src.run(ctx)
		if err != nil {
			log.Warnf("Sync source %s failed after %d records: %v", src.name, count, err)
			if s.metrics != nil {
				s.metrics.SyncErrors.WithLabelValues(src.name).Inc()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Infof("Sync source %s upserted %d records", src.name, count)
		if s.metrics != nil {
			s.metrics.SyncRecords.WithLabelValues(src.name).Add(float64(count))
		}
	}
	return firstErr
}
