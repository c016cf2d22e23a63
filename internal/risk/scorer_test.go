// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWorkedExample(t *testing.T) {
	// 12*5 + 10*2 + 12*1 + 2*10 + 0.4*(50+50) = 152, clamped to 100.
	m := Metrics{
		AvgQuakeSeverity: 5,
		FireEvents:       2,
		HazmatEvents:     1,
		Infra311Cases:    10,
		EMSCalls:         50,
		PoliceCalls:      50,
	}
	score := Compute(m)
	assert.Equal(t, 100.0, score)
	assert.Equal(t, TierCritical, TierFor(score))
}

func TestComputeAllZero(t *testing.T) {
	score := Compute(Metrics{})
	assert.Equal(t, 0.0, score)
	assert.Equal(t, TierLow, TierFor(score))
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierLow},
		{25.9, TierLow},
		{26, TierMedium},
		{50.9, TierMedium},
		{51, TierHigh},
		{75.9, TierHigh},
		{76, TierCritical},
		{100, TierCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.score), "score %v", tt.score)
	}
}

func TestComputeUnclampedMiddle(t *testing.T) {
	// 12*2 + 10*1 + 0.4*25 = 44 → Medium.
	m := Metrics{AvgQuakeSeverity: 2, FireEvents: 1, EMSCalls: 25}
	score := Compute(m)
	assert.InDelta(t, 44.0, score, 1e-9)
	assert.Equal(t, TierMedium, TierFor(score))
}

func TestRankSortsDescending(t *testing.T) {
	inputs := []Input{
		{Neighborhood: "Marina", Metrics: Metrics{FireEvents: 1}},
		{Neighborhood: "Tenderloin", Metrics: Metrics{FireEvents: 5}},
		{Neighborhood: "Mission", Metrics: Metrics{FireEvents: 3}},
	}
	scores := Rank(inputs)

	assert.Equal(t, "Tenderloin", scores[0].Neighborhood)
	assert.Equal(t, "Mission", scores[1].Neighborhood)
	assert.Equal(t, "Marina", scores[2].Neighborhood)
}

func TestRankStableOnTies(t *testing.T) {
	// Identical metrics, so identical scores; input order must survive.
	m := Metrics{FireEvents: 2}
	inputs := []Input{
		{Neighborhood: "SoMa", Metrics: m},
		{Neighborhood: "Castro", Metrics: m},
		{Neighborhood: "Bayview", Metrics: m},
	}
	scores := Rank(inputs)

	assert.Equal(t, "SoMa", scores[0].Neighborhood)
	assert.Equal(t, "Castro", scores[1].Neighborhood)
	assert.Equal(t, "Bayview", scores[2].Neighborhood)
}

func TestEarthquakeCountDoesNotAffectScore(t *testing.T) {
	base := Metrics{AvgQuakeSeverity: 3}
	withCount := base
	withCount.EarthquakeEvents = 10

	assert.Equal(t, Compute(base), Compute(withCount))
}
