// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package risk computes insurance risk scores for neighborhoods from
// aggregated emergency metrics. The score is a fixed linear-weighted sum
// clamped to [0,100] and mapped to four ordinal tiers.
package risk

import (
	"sort"
)

// Tier is the ordinal risk bucket derived from the numeric score.
type Tier string

// Risk tiers in ascending severity.
const (
	TierLow      Tier = "Low"
	TierMedium   Tier = "Medium"
	TierHigh     Tier = "High"
	TierCritical Tier = "Critical"
)

// Tier boundaries. A score at or above the boundary belongs to the tier.
const (
	mediumThreshold   = 26
	highThreshold     = 51
	criticalThreshold = 76
)

// Metric weights of the scoring formula.
const (
	weightQuakeSeverity = 12.0
	weightFireEvents    = 10.0
	weightHazmatEvents  = 12.0
	weightInfraCases    = 2.0
	weightCallVolume    = 0.4
)

// Metrics holds the six inputs of the risk formula for one neighborhood.
// All inputs are expected to be non-negative.
type Metrics struct {
	EarthquakeEvents float64 `json:"earthquake_events"`
	AvgQuakeSeverity float64 `json:"avg_quake_severity"`
	FireEvents       float64 `json:"fire_events"`
	HazmatEvents     float64 `json:"hazmat_events"`
	Infra311Cases    float64 `json:"infra_311_cases"`
	EMSCalls         float64 `json:"ems_calls"`
	PoliceCalls      float64 `json:"police_calls"`
}

// Score is the computed risk assessment for one neighborhood.
type Score struct {
	Neighborhood string  `json:"neighborhood"`
	Value        float64 `json:"score"`
	Tier         Tier    `json:"tier"`
}

// Compute evaluates the risk formula and clamps the result to [0,100].
// Deterministic; earthquake event count participates only through the
// average severity term.
func Compute(m Metrics) float64 {
	score := weightQuakeSeverity*m.AvgQuakeSeverity +
		weightFireEvents*m.FireEvents +
		weightHazmatEvents*m.HazmatEvents +
		weightInfraCases*m.Infra311Cases +
		weightCallVolume*(m.EMSCalls+m.PoliceCalls)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// TierFor maps a clamped score to its ordinal tier.
func TierFor(score float64) Tier {
	switch {
	case score >= criticalThreshold:
		return TierCritical
	case score >= highThreshold:
		return TierHigh
	case score >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Assess computes the score and tier for a single neighborhood.
func Assess(neighborhood string, m Metrics) Score {
	value := Compute(m)
	return Score{
		Neighborhood: neighborhood,
		Value:        value,
		Tier:         TierFor(value),
	}
}

// Input pairs a neighborhood with its metrics for batch assessment.
type Input struct {
	Neighborhood string
	Metrics      Metrics
}

// Rank assesses all inputs and returns them sorted descending by score.
// The sort is stable: equal scores preserve input order.
func Rank(inputs []Input) []Score {
	scores := make([]Score, 0, len(inputs))
	for _, in := range inputs {
		scores = append(scores, Assess(in.Neighborhood, in.Metrics))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})
	return scores
}
