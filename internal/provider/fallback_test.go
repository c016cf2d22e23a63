// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallbackClient() *Client {
	return NewClient(Options{})
}

func TestFallbackInsuranceAlwaysWins(t *testing.T) {
	c := newFallbackClient()

	// Insurance keywords outrank every other template, even when the
	// question also matches emergency stress, police, or disaster rules.
	questions := []string{
		"What is the insurance exposure in the Mission?",
		"Show me emergency stress and insurance risk by neighborhood",
		"How many police calls affect underwriting risk?",
		"Earthquake exposure for insurance underwriting",
		"risk levels for homeless shelters near disasters",
	}
	for _, q := range questions {
		result := c.fallback(q)
		assert.Contains(t, result.Explanation, "Insurance", "question: %s", q)
		assert.Equal(t, SourceFallback, result.Source)
		assert.Equal(t, 0.75, result.Confidence)
	}
}

func TestFallbackEmergencyStress(t *testing.T) {
	c := newFallbackClient()
	result := c.fallback("Which neighborhoods are under the most emergency stress right now?")

	assert.Contains(t, result.SQL, "stress_score")
	assert.NotContains(t, result.SQL, "FULL OUTER JOIN")
	assert.Contains(t, result.SQL, "UNION")
	assert.Equal(t, 0.85, result.Confidence)
}

func TestFallbackPoliceByNeighborhood(t *testing.T) {
	c := newFallbackClient()
	result := c.fallback("Show police calls by neighborhood today")

	assert.Contains(t, result.SQL, "sf_police_calls_rt")
	assert.Contains(t, result.SQL, "GROUP BY neighborhood")
	assert.Equal(t, 0.85, result.Confidence)
}

func TestFallbackHomeless(t *testing.T) {
	c := newFallbackClient()

	for _, q := range []string{
		"Where are homeless concerns rising?",
		"What is happening near shelters?",
	} {
		result := c.fallback(q)
		assert.Contains(t, result.SQL, "sf_311_cases", "question: %s", q)
		assert.Equal(t, 0.75, result.Confidence)
	}
}

func TestFallbackDisaster(t *testing.T) {
	c := newFallbackClient()
	result := c.fallback("Any earthquake activity this week?")

	assert.Contains(t, result.SQL, "sf_disaster_events")
	assert.Contains(t, result.SQL, "avg_severity")
	assert.Equal(t, 0.85, result.Confidence)
}

func TestFallbackCounts(t *testing.T) {
	c := newFallbackClient()

	tests := []struct {
		question string
		table    string
	}{
		{"How many police calls came in today?", "sf_police_calls_rt"},
		{"How many fire responses happened?", "sf_fire_ems_calls"},
		{"How many ems dispatches were there?", "sf_fire_ems_calls"},
		{"How many 311 cases were opened this week?", "sf_311_cases"},
	}
	for _, tt := range tests {
		result := c.fallback(tt.question)
		assert.Contains(t, result.SQL, tt.table, "question: %s", tt.question)
		assert.Equal(t, 0.80, result.Confidence)
	}

	// Unqualified count questions get the combined summary.
	result := c.fallback("How many incidents total?")
	assert.Contains(t, result.SQL, "UNION ALL")
}

func TestFallbackDisasterOutranksCounts(t *testing.T) {
	c := newFallbackClient()
	result := c.fallback("How many disaster events occurred?")

	// The disaster template sits above the count template.
	assert.Contains(t, result.SQL, "sf_disaster_events")
	assert.Equal(t, 0.85, result.Confidence)
}

func TestFallbackGenericNeighborhood(t *testing.T) {
	c := newFallbackClient()
	result := c.fallback("Compare activity across each neighborhood")

	assert.Contains(t, result.SQL, "fire_ems_calls")
	assert.Equal(t, 0.80, result.Confidence)
}

func TestFallbackDefault(t *testing.T) {
	c := newFallbackClient()
	result := c.fallback("What is going on in the city?")

	require.NotEmpty(t, result.SQL)
	assert.Equal(t, 0.70, result.Confidence)
	assert.Contains(t, result.Explanation, "default fallback")
}

func TestFallbackNeverEmptySQL(t *testing.T) {
	c := newFallbackClient()

	questions := []string{
		"", "hello", "insurance", "emergency stress", "neighborhood",
		"how many", "shelter", "earthquake", "random words entirely",
	}
	for _, q := range questions {
		result := c.fallback(q)
		assert.NotEmpty(t, strings.TrimSpace(result.SQL), "question: %q", q)
		assert.Equal(t, SourceFallback, result.Source)
	}
}

func TestFallbackCaseInsensitive(t *testing.T) {
	c := newFallbackClient()

	upper := c.fallback("INSURANCE RISK IN THE MISSION")
	lower := c.fallback("insurance risk in the mission")
	assert.Equal(t, lower.SQL, upper.SQL)
}
