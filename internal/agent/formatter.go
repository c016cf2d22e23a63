// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/citypulse/citypulse/internal/store"
)

// Default map view over San Francisco.
const (
	sfCenterLat = 37.7749
	sfCenterLng = -122.4194
	defaultZoom = 12
)

// HeatPoint is one weighted point of the heatmap layer.
type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

// Marker is one labeled map pin.
type Marker struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

// MapLayers is everything the frontend needs to render the result map.
type MapLayers struct {
	CenterLat float64     `json:"center_lat"`
	CenterLng float64     `json:"center_lng"`
	Zoom      int         `json:"zoom"`
	Heatmap   []HeatPoint `json:"heatmap"`
	Markers   []Marker    `json:"markers"`
}

// Chart is a renderable chart descriptor.
type Chart struct {
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// BuildMapLayers converts result rows into heatmap points and markers.
// Rows without usable coordinates are skipped; severity comes from stress
// score thresholds, a severity column passthrough, or defaults to low.
func BuildMapLayers(rows []store.Row) MapLayers {
	layers := MapLayers{
		CenterLat: sfCenterLat,
		CenterLng: sfCenterLng,
		Zoom:      defaultZoom,
	}

	for _, row := range rows {
		lat, okLat := rowFloat(row, "latitude", "lat")
		lng, okLng := rowFloat(row, "longitude", "lng", "lon")
		if !okLat || !okLng || (lat == 0 && lng == 0) {
			continue
		}

		layers.Heatmap = append(layers.Heatmap, HeatPoint{
			Lat:    lat,
			Lng:    lng,
			Weight: heatWeight(row),
		})
		layers.Markers = append(layers.Markers, Marker{
			Lat:         lat,
			Lng:         lng,
			Title:       markerTitle(row),
			Severity:    markerSeverity(row),
			Description: markerDescription(row),
		})
	}
	return layers
}

// heatWeight derives the point weight from whichever score-like column the
// row carries.
func heatWeight(row store.Row) float64 {
	if v, ok := rowFloat(row, "stress_score"); ok {
		return v / 10
	}
	if v, ok := rowFloat(row, "event_count"); ok {
		return v / 5
	}
	if v, ok := rowFloat(row, "risk_score", "score"); ok {
		return v
	}
	return 1.0
}

func markerSeverity(row store.Row) string {
	if v, ok := rowFloat(row, "stress_score"); ok {
		switch {
		case v > 20:
			return "critical"
		case v > 10:
			return "high"
		default:
			return "medium"
		}
	}
	if s, ok := rowString(row, "severity"); ok {
		return strings.ToLower(s)
	}
	return "low"
}

func markerTitle(row store.Row) string {
	if s, ok := rowString(row, "neighborhood"); ok {
		return s
	}
	if s, ok := rowString(row, "call_type", "category", "event_type"); ok {
		return s
	}
	return "Incident"
}

// markerDescription lists up to three non-geographic columns as label: value
// pairs, preferring the well-known metric columns.
func markerDescription(row store.Row) string {
	preferred := []string{
		"police_calls", "fire_ems_calls", "stress_score", "call_count",
		"incidents", "event_count", "avg_severity", "ems_calls",
	}
	var parts []string
	for _, col := range preferred {
		if len(parts) == 3 {
			break
		}
		if v, ok := row[col]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", col, formatValue(v)))
		}
	}
	return strings.Join(parts, ", ")
}

// BuildCharts produces a bar chart of the top neighborhoods when the rows
// carry a neighborhood column and at least one numeric metric.
func BuildCharts(rows []store.Row) []Chart {
	if len(rows) == 0 {
		return nil
	}
	metric, ok := chartMetric(rows[0])
	if !ok {
		return nil
	}

	chart := Chart{
		Type:  "bar",
		Title: "Top neighborhoods by " + metric,
	}
	for _, row := range rows {
		if len(chart.Labels) == 10 {
			break
		}
		name, okName := rowString(row, "neighborhood")
		value, okValue := rowFloat(row, metric)
		if !okName || !okValue {
			continue
		}
		chart.Labels = append(chart.Labels, name)
		chart.Values = append(chart.Values, value)
	}
	if len(chart.Labels) == 0 {
		return nil
	}
	return []Chart{chart}
}

// chartMetric picks the first score-like numeric column present.
func chartMetric(row store.Row) (string, bool) {
	if _, ok := rowString(row, "neighborhood"); !ok {
		return "", false
	}
	for _, col := range []string{
		"stress_score", "risk_score", "call_count", "police_calls",
		"incidents", "event_count", "fire_ems_calls", "count",
	} {
		if _, ok := rowFloat(row, col); ok {
			return col, true
		}
	}
	return "", false
}

// rowFloat returns the first of the named columns as a float64. SQLite
// surfaces numerics as int64, float64, or TEXT depending on column affinity.
func rowFloat(row store.Row, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func rowString(row store.Row, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			if s, isStr := v.(string); isStr && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func formatValue(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	case string:
		return n
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
