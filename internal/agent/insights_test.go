// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/citypulse/internal/store"
)

func TestGenerateInsightsHotspot(t *testing.T) {
	rows := []store.Row{
		{"neighborhood": "Tenderloin", "stress_score": 40.0},
		{"neighborhood": "Mission", "stress_score": 20.0},
	}
	insights := GenerateInsights(Intent{Type: IntentEmergencyStress}, rows)

	require.NotEmpty(t, insights)
	assert.Contains(t, insights[0], "Tenderloin")
}

func TestGenerateInsightsGapFlag(t *testing.T) {
	// 40 > 20*1.3, so the surge insight fires.
	withGap := []store.Row{
		{"neighborhood": "Tenderloin", "stress_score": 40.0},
		{"neighborhood": "Mission", "stress_score": 20.0},
	}
	insights := GenerateInsights(Intent{Type: IntentMixedQuery}, withGap)
	found := false
	for _, in := range insights {
		if strings.Contains(in, "surge") {
			found = true
		}
	}
	assert.True(t, found, "expected surge insight for a >30%% gap")

	// 22 is within 30% of 20, no surge insight.
	narrow := []store.Row{
		{"neighborhood": "Tenderloin", "stress_score": 22.0},
		{"neighborhood": "Mission", "stress_score": 20.0},
	}
	for _, in := range GenerateInsights(Intent{Type: IntentMixedQuery}, narrow) {
		assert.NotContains(t, in, "surge")
	}
}

func TestGenerateInsightsIntentActions(t *testing.T) {
	rows := []store.Row{{"neighborhood": "Mission"}}

	tests := []struct {
		intentType string
		want       string
	}{
		{IntentEmergencyStress, "patrol"},
		{IntentHomelessnessPressure, "Shelter"},
		{IntentDisasterImpact, "infrastructure"},
		{IntentInsuranceReport, "exposure"},
	}
	for _, tt := range tests {
		insights := GenerateInsights(Intent{Type: tt.intentType}, rows)
		joined := ""
		for _, in := range insights {
			joined += in + " "
		}
		assert.Contains(t, joined, tt.want, "intent: %s", tt.intentType)
	}
}

func TestGenerateInsightsEmptyRows(t *testing.T) {
	insights := GenerateInsights(Intent{Type: IntentMixedQuery}, nil)
	assert.Empty(t, insights)
}

func TestLocalAnalysisRiskLevels(t *testing.T) {
	mkRows := func(n int) []store.Row {
		rows := make([]store.Row, n)
		for i := range rows {
			rows[i] = store.Row{"neighborhood": "Mission"}
		}
		return rows
	}

	assert.Equal(t, "LOW", LocalAnalysis("q", mkRows(5)).RiskLevel)
	assert.Equal(t, "LOW", LocalAnalysis("q", mkRows(20)).RiskLevel)
	assert.Equal(t, "MEDIUM", LocalAnalysis("q", mkRows(21)).RiskLevel)
	assert.Equal(t, "MEDIUM", LocalAnalysis("q", mkRows(50)).RiskLevel)
	assert.Equal(t, "HIGH", LocalAnalysis("q", mkRows(51)).RiskLevel)
}

func TestLocalAnalysisContent(t *testing.T) {
	rows := []store.Row{
		{"neighborhood": "Bayview", "latitude": 37.73, "longitude": -122.39},
	}
	a := LocalAnalysis("emergency call patterns", rows)

	assert.Contains(t, a.ExecutiveSummary, "1 records")
	assert.Contains(t, a.KeyInsights[0], "Bayview")
	assert.Contains(t, a.ChartSuggestions, "heatmap of incident locations")
	require.NotEmpty(t, a.Recommendations)
	assert.Contains(t, a.Recommendations[0], "emergency resources")
}

func TestLocalAnalysisEmpty(t *testing.T) {
	a := LocalAnalysis("anything", nil)

	assert.Equal(t, "LOW", a.RiskLevel)
	require.NotEmpty(t, a.KeyInsights)
	assert.Contains(t, a.KeyInsights[0], "No records")
}

func TestRecommendationsKeyedOnQuestion(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"police activity tonight", "emergency resources"},
		{"shelter capacity", "shelter operators"},
		{"earthquake damage", "preparedness"},
		{"underwriting exposure", "exposure models"},
		{"anything else", "monitoring"},
	}
	for _, tt := range tests {
		recs := recommendationsFor(tt.question)
		joined := ""
		for _, r := range recs {
			joined += r + " "
		}
		assert.Contains(t, joined, tt.want, "question: %s", tt.question)
	}
}
