// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package agent orchestrates the analysis pipeline: intent classification,
// query strategy, SQL generation, execution, risk ranking, insight
// generation, and map/chart formatting.
package agent

import (
	"strings"
)

// Intent types with their lookback windows.
const (
	IntentEmergencyStress      = "emergency_stress"
	IntentHomelessnessPressure = "homelessness_pressure"
	IntentDisasterImpact       = "disaster_impact"
	IntentInsuranceReport      = "insurance_report"
	IntentMixedQuery           = "mixed_query"
)

// Intent is the classified question category with its lookback window.
type Intent struct {
	Type      string `json:"type"`
	Timeframe string `json:"timeframe"`
}

// intentRules are evaluated in order; the first match wins. Insurance
// outranks everything else so underwriting questions that also mention
// emergencies or disasters still get the risk treatment.
var intentRules = []struct {
	match  func(q string) bool
	intent Intent
}{
	{
		match: func(q string) bool {
			return hasAny(q, "insurance", "underwriting", "risk", "exposure")
		},
		intent: Intent{Type: IntentInsuranceReport, Timeframe: "7d"},
	},
	{
		match: func(q string) bool {
			return strings.Contains(q, "emergency") && strings.Contains(q, "stress")
		},
		intent: Intent{Type: IntentEmergencyStress, Timeframe: "24h"},
	},
	{
		match: func(q string) bool {
			return hasAny(q, "homeless", "shelter")
		},
		intent: Intent{Type: IntentHomelessnessPressure, Timeframe: "7d"},
	},
	{
		match: func(q string) bool {
			return hasAny(q, "disaster", "earthquake", "fire")
		},
		intent: Intent{Type: IntentDisasterImpact, Timeframe: "6h"},
	},
}

// ClassifyIntent maps a free-text question to an intent. Matching is
// case-insensitive substring search; unmatched text falls to mixed_query.
func ClassifyIntent(question string) Intent {
	q := strings.ToLower(question)
	for _, rule := range intentRules {
		if rule.match(q) {
			return rule.intent
		}
	}
	return Intent{Type: IntentMixedQuery, Timeframe: "24h"}
}

func hasAny(q string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
