// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package datasync pulls fresh records from the SF Open Data portal and the
// USGS earthquake feed into the local database. Upserts are last-write-wins;
// the sync never coordinates with in-flight queries.
package datasync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/citypulse/citypulse/internal/store"
)

// Public data endpoints.
const (
	defaultSODABaseURL = "https://data.sfgov.org/resource"
	defaultUSGSFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"

	policeDataset = "wg3w-h783"
	fireDataset   = "nuek-vuh3"
	cases311Data  = "vw6y-z8j6"
)

// fetchJSON retrieves a URL body, enforcing a 2xx status.
func (s *Service) fetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("datasync: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datasync: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("datasync: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("datasync: failed to read body: %w", err)
	}
	return body, nil
}

// sodaURL builds a Socrata resource URL with a record limit and a recency
// sort so the newest records arrive first.
func (s *Service) sodaURL(dataset, orderField string) string {
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(s.limit))
	q.Set("$order", orderField+" DESC")
	return fmt.Sprintf("%s/%s.json?%s", s.sodaBaseURL, dataset, q.Encode())
}

// syncPolice fetches recent police CAD calls and upserts them.
func (s *Service) syncPolice(ctx context.Context) (int, error) {
	body, err := s.fetchJSON(ctx, s.sodaURL(policeDataset, "received_datetime"))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range gjson.ParseBytes(body).Array() {
		call := &store.PoliceCall{
			CADID:            item.Get("cad_number").String(),
			ReceivedDatetime: item.Get("received_datetime").String(),
			DispatchDatetime: item.Get("dispatch_datetime").String(),
			ClosedDatetime:   item.Get("close_datetime").String(),
			CallType:         item.Get("call_type_final_desc").String(),
			Priority:         int(item.Get("priority_final").Int()),
			Disposition:      item.Get("disposition").String(),
			Neighborhood:     item.Get("analysis_neighborhood").String(),
			Latitude:         optFloat(item.Get("intersection_point.coordinates.1")),
			Longitude:        optFloat(item.Get("intersection_point.coordinates.0")),
		}
		if call.CADID == "" || call.ReceivedDatetime == "" {
			continue
		}
		if err := s.db.UpsertPoliceCall(ctx, call); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// syncFire fetches recent fire/EMS dispatch calls and upserts them.
func (s *Service) syncFire(ctx context.Context) (int, error) {
	body, err := s.fetchJSON(ctx, s.sodaURL(fireDataset, "received_dttm"))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range gjson.ParseBytes(body).Array() {
		call := &store.FireCall{
			CallNumber:       item.Get("call_number").String(),
			IncidentNumber:   item.Get("incident_number").String(),
			ReceivedDatetime: item.Get("received_dttm").String(),
			DispatchDatetime: item.Get("dispatch_dttm").String(),
			UnitID:           item.Get("unit_id").String(),
			CallType:         item.Get("call_type").String(),
			Disposition:      item.Get("call_final_disposition").String(),
			Neighborhood:     item.Get("neighborhood_district").String(),
			Latitude:         optFloat(item.Get("case_location.coordinates.1")),
			Longitude:        optFloat(item.Get("case_location.coordinates.0")),
		}
		if call.CallNumber == "" || call.ReceivedDatetime == "" {
			continue
		}
		if err := s.db.UpsertFireCall(ctx, call); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// sync311 fetches recent 311 cases and upserts them.
func (s *Service) sync311(ctx context.Context) (int, error) {
	body, err := s.fetchJSON(ctx, s.sodaURL(cases311Data, "requested_datetime"))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range gjson.ParseBytes(body).Array() {
		c := &store.Case311{
			CaseID:         item.Get("service_request_id").String(),
			OpenedDatetime: item.Get("requested_datetime").String(),
			ClosedDatetime: item.Get("closed_date").String(),
			Status:         item.Get("status_description").String(),
			Category:       item.Get("service_name").String(),
			Subcategory:    item.Get("service_subtype").String(),
			Neighborhood:   item.Get("analysis_neighborhood").String(),
			Latitude:       optFloat(item.Get("lat")),
			Longitude:      optFloat(item.Get("long")),
		}
		if c.CaseID == "" || c.OpenedDatetime == "" {
			continue
		}
		if err := s.db.UpsertCase311(ctx, c); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// syncEarthquakes fetches the USGS GeoJSON feed and records quakes as
// disaster events. Magnitude maps to severity: >=5 Critical, >=3 High,
// else Medium.
func (s *Service) syncEarthquakes(ctx context.Context) (int, error) {
	body, err := s.fetchJSON(ctx, s.usgsFeedURL)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, feature := range gjson.GetBytes(body, "features").Array() {
		id := feature.Get("id").String()
		if id == "" {
			continue
		}
		mag := feature.Get("properties.mag").Float()
		ts := feature.Get("properties.time").Int()

		event := &store.DisasterEvent{
			EventID:     "USGS_" + id,
			EventType:   "earthquake",
			Description: feature.Get("properties.place").String(),
			Timestamp:   time.UnixMilli(ts).UTC().Format(time.RFC3339),
			Latitude:    optFloat(feature.Get("geometry.coordinates.1")),
			Longitude:   optFloat(feature.Get("geometry.coordinates.0")),
			Severity:    quakeSeverity(mag),
			Source:      "USGS",
		}
		if err := s.db.UpsertDisasterEvent(ctx, event); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func quakeSeverity(magnitude float64) string {
	switch {
	case magnitude >= 5:
		return "Critical"
	case magnitude >= 3:
		return "High"
	default:
		return "Medium"
	}
}

func optFloat(r gjson.Result) *float64 {
	if !r.Exists() {
		return nil
	}
	v := r.Float()
	if v == 0 && r.Type == gjson.String && r.String() == "" {
		return nil
	}
	return &v
}
