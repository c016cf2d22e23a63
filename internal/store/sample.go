// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

// Neighborhoods lists the SF neighborhoods used by the sample generator.
var Neighborhoods = []string{
	"Tenderloin", "SoMa", "Mission", "Bayview", "Chinatown",
	"Financial District", "Nob Hill", "Russian Hill", "Marina",
	"Haight-Ashbury", "Castro", "Potrero Hill", "Dogpatch",
	"Outer Richmond", "Outer Sunset", "Excelsior", "Visitacion Valley",
}

// neighborhoodCoords holds approximate neighborhood centers.
var neighborhoodCoords = map[string][2]float64{
	"Tenderloin":         {37.7849, -122.4194},
	"SoMa":               {37.7749, -122.4094},
	"Mission":            {37.7599, -122.4148},
	"Bayview":            {37.7299, -122.3899},
	"Chinatown":          {37.7941, -122.4078},
	"Financial District": {37.7946, -122.3999},
	"Nob Hill":           {37.7919, -122.4155},
	"Russian Hill":       {37.8011, -122.4189},
	"Marina":             {37.8021, -122.4378},
	"Haight-Ashbury":     {37.7699, -122.4469},
	"Castro":             {37.7609, -122.4350},
	"Potrero Hill":       {37.7580, -122.3988},
	"Dogpatch":           {37.7599, -122.3888},
	"Outer Richmond":     {37.7799, -122.4899},
	"Outer Sunset":       {37.7499, -122.4899},
	"Excelsior":          {37.7249, -122.4249},
	"Visitacion Valley":  {37.7149, -122.4049},
}

var (
	policeCallTypes = []string{
		"Assault", "Burglary", "Robbery", "Theft", "Vandalism",
		"Domestic Violence", "Suspicious Activity", "Traffic Collision",
		"Welfare Check", "Noise Complaint",
	}
	fireCallTypes = []string{
		"Medical Emergency", "Structure Fire", "Vehicle Fire", "Alarm",
		"Hazmat", "Gas Leak", "Elevator Rescue", "Water Rescue",
	}
	case311Categories = []string{
		"Street Cleaning", "Graffiti", "Homeless Encampment", "Abandoned Vehicle",
		"Pothole", "Streetlight Out", "Tree Maintenance", "Illegal Dumping",
	}
	disasterTypes = []string{"Fire", "Hazmat", "Earthquake", "Flood", "Power Outage"}
	severities    = []string{"Low", "Medium", "High", "Critical"}
)

// SeedOptions controls sample data generation volume.
type SeedOptions struct {
	PoliceCalls    int
	FireCalls      int
	Cases311       int
	DisasterEvents int
	Seed           int64 // RNG seed for reproducible datasets
}

// DefaultSeedOptions mirrors the volumes of the reference dataset.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		PoliceCalls:    500,
		FireCalls:      300,
		Cases311:       400,
		DisasterEvents: 50,
		Seed:           time.Now().UnixNano(),
	}
}

// Seed clears all tables and repopulates them with generated sample data.
// Tenderloin and SoMa are weighted as high-pressure neighborhoods so demo
// queries produce plausible rankings.
func (s *Store) Seed(ctx context.Context, opts SeedOptions) error {
	rng := rand.New(rand.NewSource(opts.Seed))
	now := time.Now()

	tables := []string{
		"sf_police_calls_rt", "sf_fire_ems_calls", "sf_311_cases",
		"sf_shelter_waitlist", "sf_homeless_baseline", "sf_disaster_events",
		"neighborhoods",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("store: failed to clear %s: %w", table, err)
		}
	}

	if err := s.seedPoliceCalls(ctx, rng, now, opts.PoliceCalls); err != nil {
		return err
	}
	if err := s.seedFireCalls(ctx, rng, now, opts.FireCalls); err != nil {
		return err
	}
	if err := s.seedCases311(ctx, rng, now, opts.Cases311); err != nil {
		return err
	}
	if err := s.seedShelterWaitlist(ctx, rng, now); err != nil {
		return err
	}
	if err := s.seedHomelessBaseline(ctx, rng); err != nil {
		return err
	}
	if err := s.seedDisasterEvents(ctx, rng, now, opts.DisasterEvents); err != nil {
		return err
	}
	if err := s.seedNeighborhoods(ctx, rng); err != nil {
		return err
	}

	log.Infof("Sample data generated (police=%d fire=%d 311=%d disasters=%d)",
		opts.PoliceCalls, opts.FireCalls, opts.Cases311, opts.DisasterEvents)
	return nil
}

func jitter(rng *rand.Rand, base, spread float64) float64 {
	return base + (rng.Float64()*2-1)*spread
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func (s *Store) seedPoliceCalls(ctx context.Context, rng *rand.Rand, now time.Time, count int) error {
	for i := 0; i < count; i++ {
		hood := Neighborhoods[rng.Intn(len(Neighborhoods))]
		coords := neighborhoodCoords[hood]
		lat := jitter(rng, coords[0], 0.01)
		lon := jitter(rng, coords[1], 0.01)

		received := now.Add(-time.Duration(rng.Intn(48)) * time.Hour)
		dispatch := received.Add(time.Duration(2+rng.Intn(13)) * time.Minute)
		closed := dispatch.Add(time.Duration(10+rng.Intn(110)) * time.Minute)

		call := &PoliceCall{
			CADID:            fmt.Sprintf("CAD%06d", i),
			ReceivedDatetime: received.Format(time.RFC3339),
			DispatchDatetime: dispatch.Format(time.RFC3339),
			ClosedDatetime:   closed.Format(time.RFC3339),
			CallType:         pick(rng, policeCallTypes),
			Priority:         1 + rng.Intn(3),
			Disposition:      pick(rng, []string{"Handled", "Report Filed", "Arrest Made", "Unfounded"}),
			Neighborhood:     hood,
			Latitude:         &lat,
			Longitude:        &lon,
		}
		if err := s.UpsertPoliceCall(ctx, call); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedFireCalls(ctx context.Context, rng *rand.Rand, now time.Time, count int) error {
	for i := 0; i < count; i++ {
		hood := Neighborhoods[rng.Intn(len(Neighborhoods))]
		coords := neighborhoodCoords[hood]
		lat := jitter(rng, coords[0], 0.01)
		lon := jitter(rng, coords[1], 0.01)

		received := now.Add(-time.Duration(rng.Intn(48)) * time.Hour)
		dispatch := received.Add(time.Duration(1+rng.Intn(7)) * time.Minute)

		call := &FireCall{
			CallNumber:       fmt.Sprintf("FIRE%06d", i),
			IncidentNumber:   fmt.Sprintf("INC%06d", i),
			ReceivedDatetime: received.Format(time.RFC3339),
			DispatchDatetime: dispatch.Format(time.RFC3339),
			UnitID:           fmt.Sprintf("E%d", 1+rng.Intn(50)),
			CallType:         pick(rng, fireCallTypes),
			Disposition:      pick(rng, []string{"Transported", "Treated on Scene", "False Alarm", "Cancelled"}),
			Neighborhood:     hood,
			Latitude:         &lat,
			Longitude:        &lon,
		}
		if err := s.UpsertFireCall(ctx, call); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedCases311(ctx context.Context, rng *rand.Rand, now time.Time, count int) error {
	for i := 0; i < count; i++ {
		hood := Neighborhoods[rng.Intn(len(Neighborhoods))]
		coords := neighborhoodCoords[hood]
		lat := jitter(rng, coords[0], 0.01)
		lon := jitter(rng, coords[1], 0.01)

		opened := now.Add(-time.Duration(rng.Intn(30*24)) * time.Hour)
		c := &Case311{
			CaseID:         fmt.Sprintf("311-%06d", i),
			OpenedDatetime: opened.Format(time.RFC3339),
			Status:         "Open",
			Category:       pick(rng, case311Categories),
			Subcategory:    "General",
			Neighborhood:   hood,
			Latitude:       &lat,
			Longitude:      &lon,
		}
		if rng.Float64() > 0.3 {
			closed := opened.Add(time.Duration(1+rng.Intn(13)) * 24 * time.Hour)
			c.ClosedDatetime = closed.Format(time.RFC3339)
			c.Status = "Closed"
		}
		if err := s.UpsertCase311(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedShelterWaitlist(ctx context.Context, rng *rand.Rand, now time.Time) error {
	recordID := 0
	for daysAgo := 0; daysAgo < 7; daysAgo++ {
		date := now.AddDate(0, 0, -daysAgo)
		for _, hood := range Neighborhoods {
			baseWaiting := 10
			if hood == "Tenderloin" || hood == "SoMa" {
				baseWaiting = 50
			}
			waiting := baseWaiting - 5 + rng.Intn(21)

			coords := neighborhoodCoords[hood]
			lat := jitter(rng, coords[0], 0.005)
			lon := jitter(rng, coords[1], 0.005)

			_, err := s.db.ExecContext(ctx, `
				INSERT OR REPLACE INTO sf_shelter_waitlist
				(record_id, snapshot_date, neighborhood, people_waiting, shelter_type, latitude, longitude)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				fmt.Sprintf("SW%06d", recordID),
				date.Format("2006-01-02"),
				hood,
				waiting,
				pick(rng, []string{"Emergency", "Transitional", "Navigation Center"}),
				lat, lon)
			if err != nil {
				return fmt.Errorf("store: failed to seed shelter waitlist: %w", err)
			}
			recordID++
		}
	}
	return nil
}

func (s *Store) seedHomelessBaseline(ctx context.Context, rng *rand.Rand) error {
	for _, hood := range Neighborhoods {
		var unsheltered, sheltered int
		if hood == "Tenderloin" || hood == "SoMa" {
			unsheltered = 200 + rng.Intn(301)
			sheltered = 150 + rng.Intn(151)
		} else {
			unsheltered = 20 + rng.Intn(81)
			sheltered = 10 + rng.Intn(41)
		}
		coords := neighborhoodCoords[hood]
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO sf_homeless_baseline
			(neighborhood, unsheltered_count, sheltered_count, snapshot_year, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?)`,
			hood, unsheltered, sheltered, 2024, coords[0], coords[1])
		if err != nil {
			return fmt.Errorf("store: failed to seed homeless baseline: %w", err)
		}
	}
	return nil
}

func (s *Store) seedDisasterEvents(ctx context.Context, rng *rand.Rand, now time.Time, count int) error {
	for i := 0; i < count; i++ {
		hood := Neighborhoods[rng.Intn(len(Neighborhoods))]
		coords := neighborhoodCoords[hood]
		lat := jitter(rng, coords[0], 0.01)
		lon := jitter(rng, coords[1], 0.01)

		eventType := pick(rng, disasterTypes)
		event := &DisasterEvent{
			EventID:      fmt.Sprintf("DIS%06d", i),
			EventType:    eventType,
			Description:  fmt.Sprintf("%s event in %s", eventType, hood),
			Timestamp:    now.Add(-time.Duration(rng.Intn(12)) * time.Hour).Format(time.RFC3339),
			Latitude:     &lat,
			Longitude:    &lon,
			Neighborhood: hood,
			Severity:     pick(rng, severities),
			Source:       pick(rng, []string{"SFFD", "USGS", "CalOES", "SF311"}),
		}
		if err := s.UpsertDisasterEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedNeighborhoods(ctx context.Context, rng *rand.Rand) error {
	for _, hood := range Neighborhoods {
		population := 10000 + rng.Intn(40001)
		seniors := int(float64(population) * (0.10 + rng.Float64()*0.10))
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO neighborhoods (name, population, seniors_65_plus)
			VALUES (?, ?, ?)`,
			hood, population, seniors)
		if err != nil {
			return fmt.Errorf("store: failed to seed neighborhoods: %w", err)
		}
	}
	return nil
}
