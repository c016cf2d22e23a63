// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package datasync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/citypulse/internal/store"
)

type fakeUpserter struct {
	police    []*store.PoliceCall
	fire      []*store.FireCall
	cases     []*store.Case311
	disasters []*store.DisasterEvent
}

func (f *fakeUpserter) UpsertPoliceCall(_ context.Context, c *store.PoliceCall) error {
	f.police = append(f.police, c)
	return nil
}

func (f *fakeUpserter) UpsertFireCall(_ context.Context, c *store.FireCall) error {
	f.fire = append(f.fire, c)
	return nil
}

func (f *fakeUpserter) UpsertCase311(_ context.Context, c *store.Case311) error {
	f.cases = append(f.cases, c)
	return nil
}

func (f *fakeUpserter) UpsertDisasterEvent(_ context.Context, e *store.DisasterEvent) error {
	f.disasters = append(f.disasters, e)
	return nil
}

const policeJSON = `[
	{"cad_number":"CAD1","received_datetime":"2026-08-30T10:00:00","call_type_final_desc":"NOISE",
	 "priority_final":"2","analysis_neighborhood":"Mission",
	 "intersection_point":{"coordinates":[-122.42,37.76]}},
	{"received_datetime":"2026-08-30T11:00:00","call_type_final_desc":"MISSING CAD ID"}
]`

const fireJSON = `[
	{"call_number":"F1","received_dttm":"2026-08-30T09:00:00","unit_id":"E01","call_type":"Medical Incident",
	 "neighborhood_district":"SoMa","case_location":{"coordinates":[-122.40,37.78]}}
]`

const cases311JSON = `[
	{"service_request_id":"C1","requested_datetime":"2026-08-29T08:00:00","status_description":"Open",
	 "service_name":"Encampments","analysis_neighborhood":"Tenderloin","lat":"37.784","long":"-122.414"}
]`

const usgsJSON = `{"features":[
	{"id":"nc100","properties":{"mag":5.4,"place":"5km NE of San Francisco","time":1756500000000},
	 "geometry":{"coordinates":[-122.41,37.79,8.2]}},
	{"id":"nc101","properties":{"mag":3.1,"place":"Offshore","time":1756500100000},
	 "geometry":{"coordinates":[-123.0,37.5,10.0]}},
	{"id":"nc102","properties":{"mag":1.2,"place":"Small","time":1756500200000},
	 "geometry":{"coordinates":[-122.5,37.6,5.0]}}
]}`

func newTestService(t *testing.T, db Upserter) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, policeDataset):
			w.Write([]byte(policeJSON))
		case strings.Contains(r.URL.Path, fireDataset):
			w.Write([]byte(fireJSON))
		case strings.Contains(r.URL.Path, cases311Data):
			w.Write([]byte(cases311JSON))
		case strings.Contains(r.URL.Path, "usgs"):
			w.Write([]byte(usgsJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	svc := NewService(db, Options{
		SODABaseURL: srv.URL,
		USGSFeedURL: srv.URL + "/usgs",
		Limit:       10,
	})
	return svc, srv
}

func TestSyncAll(t *testing.T) {
	db := &fakeUpserter{}
	svc, _ := newTestService(t, db)

	err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	// The record without a cad_number is skipped.
	require.Len(t, db.police, 1)
	assert.Equal(t, "CAD1", db.police[0].CADID)
	assert.Equal(t, 2, db.police[0].Priority)
	assert.Equal(t, "Mission", db.police[0].Neighborhood)
	require.NotNil(t, db.police[0].Latitude)
	assert.InDelta(t, 37.76, *db.police[0].Latitude, 1e-9)
	assert.InDelta(t, -122.42, *db.police[0].Longitude, 1e-9)

	require.Len(t, db.fire, 1)
	assert.Equal(t, "F1", db.fire[0].CallNumber)
	assert.Equal(t, "SoMa", db.fire[0].Neighborhood)

	require.Len(t, db.cases, 1)
	assert.Equal(t, "C1", db.cases[0].CaseID)
	require.NotNil(t, db.cases[0].Latitude)
	assert.InDelta(t, 37.784, *db.cases[0].Latitude, 1e-9)

	require.Len(t, db.disasters, 3)
	assert.Equal(t, "USGS_nc100", db.disasters[0].EventID)
	assert.Equal(t, "earthquake", db.disasters[0].EventType)
	assert.Equal(t, "USGS", db.disasters[0].Source)
}

func TestQuakeSeverityMapping(t *testing.T) {
	db := &fakeUpserter{}
	svc, _ := newTestService(t, db)

	require.NoError(t, svc.SyncAll(context.Background()))
	require.Len(t, db.disasters, 3)

	assert.Equal(t, "Critical", db.disasters[0].Severity)
	assert.Equal(t, "High", db.disasters[1].Severity)
	assert.Equal(t, "Medium", db.disasters[2].Severity)
}

func TestSyncAllContinuesPastFailingSource(t *testing.T) {
	db := &fakeUpserter{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, policeDataset) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if strings.Contains(r.URL.Path, "usgs") {
			w.Write([]byte(usgsJSON))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc := NewService(db, Options{SODABaseURL: srv.URL, USGSFeedURL: srv.URL + "/usgs"})
	err := svc.SyncAll(context.Background())

	// Police failed, but the quake feed was still consumed.
	require.Error(t, err)
	assert.Len(t, db.disasters, 3)
}

func TestSodaURL(t *testing.T) {
	svc := NewService(&fakeUpserter{}, Options{SODABaseURL: "https://example.test/resource", Limit: 250})
	u := svc.sodaURL("abcd-1234", "received_datetime")

	assert.Contains(t, u, "https://example.test/resource/abcd-1234.json")
	assert.Contains(t, u, "%24limit=250")
	assert.Contains(t, u, "received_datetime+DESC")
}
