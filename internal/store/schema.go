// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

// schemaSQL is the full static schema for the CityPulse database.
// There is no migration machinery; the statements are idempotent and applied
// on every startup.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sf_police_calls_rt (
	cad_id TEXT PRIMARY KEY,
	received_datetime TEXT NOT NULL,
	dispatch_datetime TEXT,
	closed_datetime TEXT,
	call_type TEXT,
	priority INTEGER,
	disposition TEXT,
	neighborhood TEXT,
	latitude REAL,
	longitude REAL
);

CREATE TABLE IF NOT EXISTS sf_fire_ems_calls (
	call_number TEXT PRIMARY KEY,
	incident_number TEXT,
	received_datetime TEXT NOT NULL,
	dispatch_datetime TEXT,
	unit_id TEXT,
	call_type TEXT,
	disposition TEXT,
	neighborhood TEXT,
	latitude REAL,
	longitude REAL
);

CREATE TABLE IF NOT EXISTS sf_311_cases (
	case_id TEXT PRIMARY KEY,
	opened_datetime TEXT NOT NULL,
	closed_datetime TEXT,
	status TEXT,
	category TEXT,
	subcategory TEXT,
	neighborhood TEXT,
	latitude REAL,
	longitude REAL
);

CREATE TABLE IF NOT EXISTS sf_shelter_waitlist (
	record_id TEXT PRIMARY KEY,
	snapshot_date TEXT NOT NULL,
	neighborhood TEXT,
	people_waiting INTEGER,
	shelter_type TEXT,
	latitude REAL,
	longitude REAL
);

CREATE TABLE IF NOT EXISTS sf_homeless_baseline (
	neighborhood TEXT PRIMARY KEY,
	unsheltered_count INTEGER,
	sheltered_count INTEGER,
	snapshot_year INTEGER,
	latitude REAL,
	longitude REAL
);

CREATE TABLE IF NOT EXISTS sf_disaster_events (
	event_id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	description TEXT,
	timestamp TEXT NOT NULL,
	latitude REAL,
	longitude REAL,
	neighborhood TEXT,
	severity TEXT,
	source TEXT
);

CREATE TABLE IF NOT EXISTS neighborhoods (
	name TEXT PRIMARY KEY,
	population INTEGER,
	seniors_65_plus INTEGER
);

CREATE INDEX IF NOT EXISTS idx_police_received ON sf_police_calls_rt(received_datetime);
CREATE INDEX IF NOT EXISTS idx_police_neighborhood ON sf_police_calls_rt(neighborhood);
CREATE INDEX IF NOT EXISTS idx_fire_received ON sf_fire_ems_calls(received_datetime);
CREATE INDEX IF NOT EXISTS idx_fire_neighborhood ON sf_fire_ems_calls(neighborhood);
CREATE INDEX IF NOT EXISTS idx_311_opened ON sf_311_cases(opened_datetime);
CREATE INDEX IF NOT EXISTS idx_disaster_timestamp ON sf_disaster_events(timestamp);
`

// TableInfo describes a table exposed to the SQL-generation provider.
type TableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Schema describes the queryable surface of the database. It is sent to the
// remote provider verbatim and returned by the /api/schema endpoint.
type Schema struct {
	Tables []TableInfo `json:"tables"`
}

// DatabaseSchema returns the static schema description.
func DatabaseSchema() Schema {
	return Schema{
		Tables: []TableInfo{
			{
				Name: "sf_police_calls_rt",
				Columns: []string{"cad_id", "received_datetime", "dispatch_datetime",
					"closed_datetime", "call_type", "priority", "disposition",
					"neighborhood", "latitude", "longitude"},
			},
			{
				Name: "sf_fire_ems_calls",
				Columns: []string{"call_number", "incident_number", "received_datetime",
					"dispatch_datetime", "unit_id", "call_type", "disposition",
					"neighborhood", "latitude", "longitude"},
			},
			{
				Name: "sf_311_cases",
				Columns: []string{"case_id", "opened_datetime", "closed_datetime", "status",
					"category", "subcategory", "neighborhood", "latitude", "longitude"},
			},
			{
				Name: "sf_shelter_waitlist",
				Columns: []string{"record_id", "snapshot_date", "neighborhood",
					"people_waiting", "shelter_type"},
			},
			{
				Name:    "sf_homeless_baseline",
				Columns: []string{"neighborhood", "unsheltered_count", "sheltered_count", "snapshot_year"},
			},
			{
				Name: "sf_disaster_events",
				Columns: []string{"event_id", "event_type", "description", "timestamp",
					"latitude", "longitude", "neighborhood", "severity", "source"},
			},
			{
				Name:    "neighborhoods",
				Columns: []string{"name", "population", "seniors_65_plus"},
			},
		},
	}
}
