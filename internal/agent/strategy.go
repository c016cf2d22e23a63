// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package agent

// Strategy describes how a question should be answered: which tables to
// consult, which metrics matter, and a context string passed to the remote
// SQL provider as a prompt hint. The context has no effect on the local
// fallback templates.
type Strategy struct {
	Tables  []string `json:"tables"`
	Metrics []string `json:"metrics"`
	Context string   `json:"context"`
}

// PlanStrategy maps a classified intent to its query strategy.
func PlanStrategy(intent Intent) Strategy {
	switch intent.Type {
	case IntentEmergencyStress:
		return Strategy{
			Tables:  []string{"sf_police_calls_rt", "sf_fire_ems_calls"},
			Metrics: []string{"police_calls", "fire_ems_calls", "stress_score"},
			Context: "Analyze emergency call volume over the past 24 hours, grouped by neighborhood. " +
				"Compute stress_score = police_calls * 1.0 + fire_ems_calls * 1.2 and order by it descending.",
		}
	case IntentHomelessnessPressure:
		return Strategy{
			Tables:  []string{"sf_311_cases", "sf_shelter_waitlist", "sf_homeless_baseline"},
			Metrics: []string{"incidents", "people_waiting", "unsheltered_count"},
			Context: "Analyze homelessness pressure over the past 7 days: 311 cases with homelessness " +
				"categories, shelter waitlist counts, and the point-in-time baseline, grouped by neighborhood.",
		}
	case IntentDisasterImpact:
		return Strategy{
			Tables:  []string{"sf_disaster_events", "sf_fire_ems_calls"},
			Metrics: []string{"event_count", "avg_severity"},
			Context: "Analyze disaster events over the past 6 hours grouped by neighborhood, " +
				"including event counts and average severity (Low=1, Medium=2, High=3, Critical=4).",
		}
	case IntentInsuranceReport:
		return Strategy{
			Tables: []string{"sf_disaster_events", "sf_fire_ems_calls", "sf_police_calls_rt", "sf_311_cases"},
			Metrics: []string{"earthquake_events", "avg_quake_severity", "fire_events",
				"hazmat_events", "infra_311_cases", "ems_calls", "police_calls"},
			Context: "Build an insurance risk profile per neighborhood over the past 7 days: earthquake " +
				"events and average severity, fire events, hazmat events, infrastructure-related 311 cases, " +
				"and EMS plus police call volume. Include all metric columns by name.",
		}
	default:
		return Strategy{
			Tables:  []string{"sf_police_calls_rt", "sf_fire_ems_calls", "sf_311_cases"},
			Metrics: []string{"police_calls", "fire_ems_calls"},
			Context: "Summarize emergency activity over the past 24 hours grouped by neighborhood.",
		}
	}
}
