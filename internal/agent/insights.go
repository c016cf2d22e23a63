// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"fmt"
	"strings"

	"github.com/citypulse/citypulse/internal/store"
)

// Analysis is the narrative summary attached to a response, either taken
// from the provider's explanation or built locally from the rows.
type Analysis struct {
	ExecutiveSummary string   `json:"executive_summary"`
	KeyInsights      []string `json:"key_insights"`
	RiskLevel        string   `json:"risk_level"`
	Recommendations  []string `json:"recommendations"`
	ChartSuggestions []string `json:"chart_suggestions"`
}

// GenerateInsights derives short observations from scored rows: the leading
// hotspot, a flag when the leader clearly outpaces the runner-up, and an
// intent-specific action.
func GenerateInsights(intent Intent, rows []store.Row) []string {
	var insights []string

	if len(rows) > 0 {
		if name, ok := rowString(rows[0], "neighborhood"); ok {
			insights = append(insights, fmt.Sprintf("%s is the current hotspot with the highest activity in this result set.", name))
		}
	}

	if len(rows) > 1 {
		lead, okLead := rowFloat(rows[0], "stress_score")
		next, okNext := rowFloat(rows[1], "stress_score")
		if okLead && okNext && next > 0 && lead > next*1.3 {
			leadName, _ := rowString(rows[0], "neighborhood")
			insights = append(insights, fmt.Sprintf("%s shows a stress level more than 30%% above the next neighborhood, indicating a concentrated surge.", leadName))
		}
	}

	switch intent.Type {
	case IntentEmergencyStress:
		insights = append(insights, "Consider rebalancing patrol and EMS unit coverage toward the top-ranked neighborhoods.")
	case IntentHomelessnessPressure:
		insights = append(insights, "Shelter and outreach capacity should be reviewed for the neighborhoods with rising 311 activity.")
	case IntentDisasterImpact:
		insights = append(insights, "Verify infrastructure status and emergency access routes in the affected neighborhoods.")
	case IntentInsuranceReport:
		insights = append(insights, "High-tier neighborhoods warrant updated exposure models and premium review.")
	}

	return insights
}

// LocalAnalysis builds a full narrative when the provider did not supply
// one. Risk level uses a coarse volume heuristic over the result size.
func LocalAnalysis(question string, rows []store.Row) Analysis {
	a := Analysis{
		ExecutiveSummary: fmt.Sprintf("Analysis of %d records for: %s", len(rows), question),
		RiskLevel:        riskLevelFor(len(rows)),
	}

	if len(rows) > 0 {
		if name, ok := rowString(rows[0], "neighborhood"); ok {
			a.KeyInsights = append(a.KeyInsights, fmt.Sprintf("Highest activity recorded in %s.", name))
		}
		a.KeyInsights = append(a.KeyInsights, fmt.Sprintf("%d data points matched the query window.", len(rows)))
		a.ChartSuggestions = append(a.ChartSuggestions, "bar chart of top neighborhoods")
		if _, ok := rowFloat(rows[0], "latitude", "lat"); ok {
			a.ChartSuggestions = append(a.ChartSuggestions, "heatmap of incident locations")
		}
	} else {
		a.KeyInsights = append(a.KeyInsights, "No records matched the query window.")
	}

	a.Recommendations = recommendationsFor(question)
	return a
}

func riskLevelFor(rowCount int) string {
	switch {
	case rowCount > 50:
		return "HIGH"
	case rowCount > 20:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func recommendationsFor(question string) []string {
	q := strings.ToLower(question)
	switch {
	case hasAny(q, "emergency", "police", "fire", "ems"):
		return []string{
			"Deploy additional emergency resources to the highest-activity neighborhoods.",
			"Monitor call volume trends over the next 24 hours.",
		}
	case hasAny(q, "homeless", "shelter"):
		return []string{
			"Coordinate with shelter operators on available capacity.",
			"Dispatch outreach teams to neighborhoods with clustered 311 cases.",
		}
	case hasAny(q, "disaster", "earthquake"):
		return []string{
			"Review emergency preparedness plans for the affected areas.",
			"Cross-check disaster events against infrastructure reports.",
		}
	case hasAny(q, "insurance", "risk", "underwriting", "exposure"):
		return []string{
			"Re-run exposure models for Critical and High tier neighborhoods.",
			"Schedule a portfolio review against the latest event data.",
		}
	default:
		return []string{
			"Continue monitoring city-wide activity for emerging patterns.",
		}
	}
}
