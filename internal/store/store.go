// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store provides SQLite-backed storage for the CityPulse emergency
// datasets. It applies the static schema on startup and exposes generic
// query execution for the analysis agent plus upsert helpers for the
// background sync job.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	log "github.com/sirupsen/logrus"
)

// Row is a single result row keyed by column name. Numeric columns come back
// as int64 or float64 depending on the SQLite storage class.
type Row map[string]interface{}

// Store wraps the SQLite database holding the SF emergency datasets.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the SQLite database at path and applies
// the schema.
//
// Parameters:
//   - path: Path to the SQLite database file
//
// Returns:
//   - *Store: The opened store
//   - error: Any error encountered while opening or applying the schema
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: database path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to apply schema: %w", err)
	}

	log.Infof("Store initialized (db: %s)", path)
	return &Store{db: db, path: path}, nil
}

// NewWithDB wraps an existing database handle. Used by tests that need a
// mocked or in-memory database.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("store: ping failed: %w", err)
	}
	return nil
}

// Query executes an arbitrary SELECT statement and returns the rows as
// column-keyed maps. Column order is not preserved; callers that care about
// presentation order must consult the SQL they supplied.
//
// Parameters:
//   - ctx: Context for the query
//   - query: The SQL statement to execute
//
// Returns:
//   - []Row: Result rows, column name to value
//   - error: Any error from preparation, execution, or scanning
func (s *Store) Query(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: failed to read columns: %w", err)
	}

	var results []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("store: failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			v := values[i]
			// SQLite hands TEXT back as []byte; convert for JSON friendliness.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating rows: %w", err)
	}
	return results, nil
}

// PoliceCall is one police CAD record for upsert.
type PoliceCall struct {
	CADID            string
	ReceivedDatetime string
	DispatchDatetime string
	ClosedDatetime   string
	CallType         string
	Priority         int
	Disposition      string
	Neighborhood     string
	Latitude         *float64
	Longitude        *float64
}

// FireCall is one fire/EMS dispatch record for upsert.
type FireCall struct {
	CallNumber       string
	IncidentNumber   string
	ReceivedDatetime string
	DispatchDatetime string
	UnitID           string
	CallType         string
	Disposition      string
	Neighborhood     string
	Latitude         *float64
	Longitude        *float64
}

// Case311 is one 311 service case for upsert.
type Case311 struct {
	CaseID         string
	OpenedDatetime string
	ClosedDatetime string
	Status         string
	Category       string
	Subcategory    string
	Neighborhood   string
	Latitude       *float64
	Longitude      *float64
}

// DisasterEvent is one disaster event record for upsert.
type DisasterEvent struct {
	EventID      string
	EventType    string
	Description  string
	Timestamp    string
	Latitude     *float64
	Longitude    *float64
	Neighborhood string
	Severity     string
	Source       string
}

// UpsertPoliceCall writes a police call record, replacing any existing row
// with the same cad_id (last-write-wins).
func (s *Store) UpsertPoliceCall(ctx context.Context, c *PoliceCall) error {
	if c.CADID == "" {
		return fmt.Errorf("store: police call missing cad_id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sf_police_calls_rt
		(cad_id, received_datetime, dispatch_datetime, closed_datetime,
		 call_type, priority, disposition, neighborhood, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CADID, c.ReceivedDatetime, nullable(c.DispatchDatetime), nullable(c.ClosedDatetime),
		c.CallType, c.Priority, c.Disposition, nullable(c.Neighborhood), c.Latitude, c.Longitude)
	if err != nil {
		return fmt.Errorf("store: failed to upsert police call: %w", err)
	}
	return nil
}

// UpsertFireCall writes a fire/EMS call record, replacing any existing row
// with the same call_number.
func (s *Store) UpsertFireCall(ctx context.Context, c *FireCall) error {
	if c.CallNumber == "" {
		return fmt.Errorf("store: fire call missing call_number")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sf_fire_ems_calls
		(call_number, incident_number, received_datetime, dispatch_datetime,
		 unit_id, call_type, disposition, neighborhood, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CallNumber, nullable(c.IncidentNumber), c.ReceivedDatetime, nullable(c.DispatchDatetime),
		c.UnitID, c.CallType, c.Disposition, nullable(c.Neighborhood), c.Latitude, c.Longitude)
	if err != nil {
		return fmt.Errorf("store: failed to upsert fire call: %w", err)
	}
	return nil
}

// UpsertCase311 writes a 311 case record, replacing any existing row with
// the same case_id.
func (s *Store) UpsertCase311(ctx context.Context, c *Case311) error {
	if c.CaseID == "" {
		return fmt.Errorf("store: 311 case missing case_id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sf_311_cases
		(case_id, opened_datetime, closed_datetime, status,
		 category, subcategory, neighborhood, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CaseID, c.OpenedDatetime, nullable(c.ClosedDatetime), c.Status,
		c.Category, nullable(c.Subcategory), nullable(c.Neighborhood), c.Latitude, c.Longitude)
	if err != nil {
		return fmt.Errorf("store: failed to upsert 311 case: %w", err)
	}
	return nil
}

// UpsertDisasterEvent writes a disaster event record, replacing any existing
// row with the same event_id.
func (s *Store) UpsertDisasterEvent(ctx context.Context, e *DisasterEvent) error {
	if e.EventID == "" {
		return fmt.Errorf("store: disaster event missing event_id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sf_disaster_events
		(event_id, event_type, description, timestamp,
		 latitude, longitude, neighborhood, severity, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.EventType, e.Description, e.Timestamp,
		e.Latitude, e.Longitude, nullable(e.Neighborhood), e.Severity, e.Source)
	if err != nil {
		return fmt.Errorf("store: failed to upsert disaster event: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: failed to close database: %w", err)
	}
	return nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
