// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// fallbackTemplate pairs a match predicate with a static SQL template.
// Templates are evaluated in declaration order; the first match wins, which
// makes precedence explicit and testable.
type fallbackTemplate struct {
	name  string
	match func(q string) bool
	build func(q string) QueryResult
}

func containsAny(q string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// fallbackTemplates is the local decision table used when both remote modes
// fail. Insurance outranks everything else; the remaining order mirrors the
// intent classifier with count queries and the generic neighborhood rollup
// at the bottom.
var fallbackTemplates = []fallbackTemplate{
	{
		name: "insurance",
		match: func(q string) bool {
			return containsAny(q, "insurance", "underwriting", "risk", "exposure")
		},
		build: func(string) QueryResult {
			return QueryResult{
				SQL:         insuranceSQL,
				Explanation: "Insurance risk assessment query (fallback - limited disaster data)",
				Confidence:  0.75,
				Source:      SourceFallback,
			}
		},
	},
	{
		name: "emergency_stress",
		match: func(q string) bool {
			return strings.Contains(q, "emergency") && strings.Contains(q, "stress")
		},
		build: func(string) QueryResult {
			return QueryResult{
				SQL:         emergencyStressSQL,
				Explanation: "Emergency stress analysis for past 24 hours combining police and fire/EMS calls",
				Confidence:  0.85,
				Source:      SourceFallback,
			}
		},
	},
	{
		name: "police_by_neighborhood",
		match: func(q string) bool {
			return strings.Contains(q, "police") && strings.Contains(q, "neighborhood")
		},
		build: func(string) QueryResult {
			return QueryResult{
				SQL:         policeByNeighborhoodSQL,
				Explanation: "Police calls by neighborhood for past 24 hours",
				Confidence:  0.85,
				Source:      SourceFallback,
			}
		},
	},
	{
		name: "homeless_311",
		match: func(q string) bool {
			return containsAny(q, "homeless", "shelter")
		},
		build: func(string) QueryResult {
			return QueryResult{
				SQL:         homeless311SQL,
				Explanation: "311 cases analysis for homelessness indicators",
				Confidence:  0.75,
				Source:      SourceFallback,
			}
		},
	},
	{
		name: "disaster_events",
		match: func(q string) bool {
			return containsAny(q, "disaster", "earthquake")
		},
		build: func(string) QueryResult {
			return QueryResult{
				SQL:         disasterEventsSQL,
				Explanation: "Disaster events analysis for past 7 days",
				Confidence:  0.85,
				Source:      SourceFallback,
			}
		},
	},
	{
		name: "counts",
		match: func(q string) bool {
			return strings.Contains(q, "how many")
		},
		build: func(q string) QueryResult {
			return QueryResult{
				SQL:         countSQLFor(q),
				Explanation: "Count query for recent emergency data",
				Confidence:  0.80,
				Source:      SourceFallback,
			}
		},
	},
	{
		name: "neighborhood_overview",
		match: func(q string) bool {
			return strings.Contains(q, "neighborhood")
		},
		build: func(string) QueryResult {
			return QueryResult{
				SQL:         neighborhoodOverviewSQL,
				Explanation: "Emergency calls by neighborhood for past 24 hours",
				Confidence:  0.80,
				Source:      SourceFallback,
			}
		},
	},
}

// fallback selects the first matching template, or the default emergency
// overview when nothing matches.
func (c *Client) fallback(question string) QueryResult {
	q := strings.ToLower(question)

	for _, tmpl := range fallbackTemplates {
		if tmpl.match(q) {
			log.Debugf("Fallback template selected: %s", tmpl.name)
			c.countFallback(tmpl.name)
			return tmpl.build(q)
		}
	}

	c.countFallback("default")
	return QueryResult{
		SQL:         neighborhoodOverviewSQL,
		Explanation: "General emergency overview by neighborhood (default fallback)",
		Confidence:  0.70,
		Source:      SourceFallback,
	}
}

func (c *Client) countFallback(template string) {
	if c.metrics != nil {
		c.metrics.FallbackSelections.WithLabelValues(template).Inc()
	}
}

// countSQLFor picks the count target mentioned in the question, defaulting
// to a combined police and fire summary.
func countSQLFor(q string) string {
	switch {
	case strings.Contains(q, "police"):
		return `SELECT COUNT(*) as police_calls FROM sf_police_calls_rt WHERE datetime(received_datetime) >= datetime('now', '-24 hours')`
	case strings.Contains(q, "fire"), strings.Contains(q, "ems"):
		return `SELECT COUNT(*) as fire_ems_calls FROM sf_fire_ems_calls WHERE datetime(received_datetime) >= datetime('now', '-24 hours')`
	case strings.Contains(q, "311"):
		return `SELECT COUNT(*) as cases_311 FROM sf_311_cases WHERE datetime(opened_datetime) >= datetime('now', '-7 days')`
	default:
		return combinedCountSQL
	}
}

// The emergency stress rollup needs every neighborhood present in either
// table. SQLite lacks FULL OUTER JOIN, so both aggregates are left-joined
// onto the union of neighborhood names instead.
const emergencyStressSQL = `
WITH police AS (
	SELECT neighborhood,
	       COUNT(DISTINCT cad_id) as police_calls,
	       AVG(latitude) as latitude,
	       AVG(longitude) as longitude
	FROM sf_police_calls_rt
	WHERE neighborhood IS NOT NULL
	  AND datetime(received_datetime) >= datetime('now', '-24 hours')
	GROUP BY neighborhood
), fire AS (
	SELECT neighborhood,
	       COUNT(DISTINCT call_number) as fire_ems_calls
	FROM sf_fire_ems_calls
	WHERE neighborhood IS NOT NULL
	  AND datetime(received_datetime) >= datetime('now', '-24 hours')
	GROUP BY neighborhood
), hoods AS (
	SELECT neighborhood FROM police
	UNION
	SELECT neighborhood FROM fire
)
SELECT h.neighborhood,
       COALESCE(p.police_calls, 0) as police_calls,
       COALESCE(f.fire_ems_calls, 0) as fire_ems_calls,
       (COALESCE(p.police_calls, 0) * 1.0 + COALESCE(f.fire_ems_calls, 0) * 1.2) as stress_score,
       p.latitude as latitude,
       p.longitude as longitude
FROM hoods h
LEFT JOIN police p ON p.neighborhood = h.neighborhood
LEFT JOIN fire f ON f.neighborhood = h.neighborhood
ORDER BY stress_score DESC
LIMIT 20`

const insuranceSQL = `
SELECT p.neighborhood,
       COUNT(DISTINCT p.cad_id) as police_calls,
       COUNT(DISTINCT f.call_number) as ems_calls,
       0 as earthquake_events,
       0 as avg_quake_severity,
       0 as fire_events,
       0 as hazmat_events,
       0 as infra_311_cases,
       AVG(p.latitude) as latitude,
       AVG(p.longitude) as longitude
FROM sf_police_calls_rt p
LEFT JOIN sf_fire_ems_calls f ON p.neighborhood = f.neighborhood
WHERE p.neighborhood IS NOT NULL
  AND datetime(p.received_datetime) >= datetime('now', '-7 days')
GROUP BY p.neighborhood
ORDER BY police_calls DESC
LIMIT 20`

const policeByNeighborhoodSQL = `
SELECT neighborhood,
       COUNT(*) as call_count,
       AVG(latitude) as latitude,
       AVG(longitude) as longitude
FROM sf_police_calls_rt
WHERE neighborhood IS NOT NULL
  AND datetime(received_datetime) >= datetime('now', '-24 hours')
GROUP BY neighborhood
ORDER BY call_count DESC
LIMIT 20`

const homeless311SQL = `
SELECT neighborhood,
       COUNT(*) as incidents,
       AVG(latitude) as latitude,
       AVG(longitude) as longitude
FROM sf_311_cases
WHERE neighborhood IS NOT NULL
  AND datetime(opened_datetime) >= datetime('now', '-7 days')
GROUP BY neighborhood
ORDER BY incidents DESC
LIMIT 20`

const disasterEventsSQL = `
SELECT neighborhood,
       COUNT(*) as event_count,
       AVG(CASE severity
           WHEN 'Low' THEN 1
           WHEN 'Medium' THEN 2
           WHEN 'High' THEN 3
           WHEN 'Critical' THEN 4
           ELSE 0 END) as avg_severity,
       AVG(latitude) as latitude,
       AVG(longitude) as longitude
FROM sf_disaster_events
WHERE neighborhood IS NOT NULL
  AND datetime(timestamp) >= datetime('now', '-7 days')
GROUP BY neighborhood
ORDER BY event_count DESC
LIMIT 20`

const combinedCountSQL = `
SELECT 'police' as category, COUNT(*) as count FROM sf_police_calls_rt WHERE datetime(received_datetime) >= datetime('now', '-24 hours')
UNION ALL
SELECT 'fire_ems' as category, COUNT(*) as count FROM sf_fire_ems_calls WHERE datetime(received_datetime) >= datetime('now', '-24 hours')`

const neighborhoodOverviewSQL = `
SELECT p.neighborhood,
       COUNT(DISTINCT p.cad_id) as police_calls,
       COUNT(DISTINCT f.call_number) as fire_ems_calls,
       AVG(p.latitude) as latitude,
       AVG(p.longitude) as longitude
FROM sf_police_calls_rt p
LEFT JOIN sf_fire_ems_calls f ON p.neighborhood = f.neighborhood
WHERE p.neighborhood IS NOT NULL
  AND datetime(p.received_datetime) >= datetime('now', '-24 hours')
GROUP BY p.neighborhood
ORDER BY police_calls DESC
LIMIT 20`
