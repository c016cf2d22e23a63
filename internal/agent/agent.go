// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/citypulse/citypulse/internal/observability"
	"github.com/citypulse/citypulse/internal/provider"
	"github.com/citypulse/citypulse/internal/risk"
	"github.com/citypulse/citypulse/internal/store"
)

// Response size caps. Full result sets stay server-side; the response
// carries enough to render the map and rankings.
const (
	maxRawRows  = 20
	maxRankings = 10
)

// Querier executes read-only SQL against the CityPulse database.
type Querier interface {
	Query(ctx context.Context, sql string) ([]store.Row, error)
}

// SQLGenerator resolves a natural-language question into an executable
// query result.
type SQLGenerator interface {
	GenerateSQL(ctx context.Context, question string, schema store.Schema, queryContext string) provider.QueryResult
}

// Agent runs the analysis pipeline for one question at a time. Safe for
// concurrent use; all state lives in the collaborators.
type Agent struct {
	db      Querier
	sqlgen  SQLGenerator
	metrics *observability.Metrics
}

// New creates an Agent. Metrics may be nil.
func New(db Querier, sqlgen SQLGenerator, metrics *observability.Metrics) *Agent {
	return &Agent{db: db, sqlgen: sqlgen, metrics: metrics}
}

// Result is the complete analysis of one question.
type Result struct {
	Question    string       `json:"question"`
	Intent      Intent       `json:"intent"`
	SQL         string       `json:"sql"`
	Explanation string       `json:"explanation"`
	Source      string       `json:"source"`
	Confidence  float64      `json:"confidence"`
	RowCount    int          `json:"row_count"`
	Rows        []store.Row  `json:"rows"`
	Rankings    []risk.Score `json:"rankings,omitempty"`
	Insights    []string     `json:"insights"`
	Analysis    Analysis     `json:"analysis"`
	Map         MapLayers    `json:"map"`
	Charts      []Chart      `json:"charts,omitempty"`
}

// QueryError is the structured failure returned when generated SQL does not
// execute. It carries the failing SQL so the caller can see what was tried.
type QueryError struct {
	Message    string `json:"error"`
	SQLUsed    string `json:"sql_used"`
	Source     string `json:"source"`
	Suggestion string `json:"suggestion"`
}

func (e *QueryError) Error() string {
	return e.Message
}

// Analyze answers a question end to end: classify, plan, generate SQL,
// execute, rank, and format. The only error condition is SQL that fails to
// execute locally; everything upstream of execution degrades through the
// provider fallback chain instead of failing.
func (a *Agent) Analyze(ctx context.Context, question string) (*Result, error) {
	start := time.Now()

	intent := ClassifyIntent(question)
	strategy := PlanStrategy(intent)
	if a.metrics != nil {
		a.metrics.AnalyzeRequests.WithLabelValues(intent.Type).Inc()
	}
	log.Infof("Analyzing question (intent=%s timeframe=%s)", intent.Type, intent.Timeframe)

	generated := a.sqlgen.GenerateSQL(ctx, question, store.DatabaseSchema(), strategy.Context)

	rows := generated.Rows
	if rows == nil {
		var err error
		rows, err = a.db.Query(ctx, generated.SQL)
		if err != nil {
			if a.metrics != nil {
				a.metrics.AnalyzeErrors.Inc()
			}
			log.Warnf("Query execution failed (source=%s): %v", generated.Source, err)
			return nil, &QueryError{
				Message:    "generated SQL failed to execute: " + err.Error(),
				SQLUsed:    generated.SQL,
				Source:     generated.Source,
				Suggestion: "Try rephrasing the question or asking about a specific neighborhood or timeframe.",
			}
		}
	}

	result := &Result{
		Question:    question,
		Intent:      intent,
		SQL:         generated.SQL,
		Explanation: generated.Explanation,
		Source:      generated.Source,
		Confidence:  generated.Confidence,
		RowCount:    len(rows),
		Insights:    GenerateInsights(intent, rows),
		Analysis:    LocalAnalysis(question, rows),
		Map:         BuildMapLayers(rows),
		Charts:      BuildCharts(rows),
	}

	if intent.Type == IntentInsuranceReport {
		result.Rankings = rankRows(rows)
	}

	result.Rows = rows
	if len(result.Rows) > maxRawRows {
		result.Rows = result.Rows[:maxRawRows]
	}

	if a.metrics != nil {
		a.metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
	}
	return result, nil
}

// rankRows scores each neighborhood row with the insurance risk formula and
// returns the top entries in descending score order.
func rankRows(rows []store.Row) []risk.Score {
	inputs := make([]risk.Input, 0, len(rows))
	for _, row := range rows {
		name, ok := rowString(row, "neighborhood")
		if !ok {
			continue
		}
		m := risk.Metrics{}
		m.EarthquakeEvents, _ = rowFloat(row, "earthquake_events")
		m.AvgQuakeSeverity, _ = rowFloat(row, "avg_quake_severity")
		m.FireEvents, _ = rowFloat(row, "fire_events")
		m.HazmatEvents, _ = rowFloat(row, "hazmat_events")
		m.Infra311Cases, _ = rowFloat(row, "infra_311_cases")
		m.EMSCalls, _ = rowFloat(row, "ems_calls")
		m.PoliceCalls, _ = rowFloat(row, "police_calls")
		inputs = append(inputs, risk.Input{Neighborhood: name, Metrics: m})
	}

	scores := risk.Rank(inputs)
	if len(scores) > maxRankings {
		scores = scores[:maxRankings]
	}
	return scores
}
